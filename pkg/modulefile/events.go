package modulefile

import "io"

// EventKind is one step of spec §4.5's parser event sequence:
// START_FILE → (START_SECTION (START_SUBSECTION END_SUBSECTION)* END_SECTION)+ → END_FILE.
type EventKind int

const (
	StartFile EventKind = iota
	StartSection
	StartSubsection
	EndSubsection
	EndSection
	EndFile
)

// Event carries whichever header is current for its Kind, plus — for
// START_SECTION and START_SUBSECTION — the decompressed content. Only
// START_SECTION also carries a hash (the section's recorded hash);
// subsections have none.
type Event struct {
	Kind       EventKind
	Header     *FileHeader
	Section    *SectionHeader
	Subsection *SubsectionHeader
	Content    []byte
	Hash       []byte
}

// EventReader replays an already-parsed module-file as the event sequence
// spec §4.5 describes, for callers that want to drive extraction or
// verification section-by-section rather than through ParsedFile
// directly.
type EventReader struct {
	pf           *ParsedFile
	sectionIdx   int
	subIdx       int
	inSection    bool
	inSubsection bool
	done         bool
	emittedStart bool
}

// NewEventReader parses r and returns an EventReader over the result.
func NewEventReader(r io.Reader) (*EventReader, error) {
	pf, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return &EventReader{pf: pf}, nil
}

// Next returns the next event, or (Event{}, io.EOF) once END_FILE has been
// delivered.
func (e *EventReader) Next() (Event, error) {
	if e.done {
		return Event{}, io.EOF
	}

	if !e.emittedStart {
		e.emittedStart = true
		return Event{Kind: StartFile, Header: &e.pf.Header}, nil
	}

	if e.sectionIdx >= len(e.pf.Sections) {
		e.done = true
		return Event{Kind: EndFile}, nil
	}

	sec := &e.pf.Sections[e.sectionIdx]

	if !e.inSection {
		e.inSection = true
		e.subIdx = 0
		return Event{Kind: StartSection, Section: &sec.Header, Content: sec.Body, Hash: sec.Header.Hash}, nil
	}

	if e.subIdx < len(sec.Subsections) {
		sub := &sec.Subsections[e.subIdx]
		if !e.inSubsection {
			e.inSubsection = true
			return Event{Kind: StartSubsection, Subsection: &sub.Header, Content: sub.Content}, nil
		}
		e.inSubsection = false
		e.subIdx++
		return Event{Kind: EndSubsection, Subsection: &sub.Header}, nil
	}

	e.inSection = false
	e.sectionIdx++
	return Event{Kind: EndSection, Section: &sec.Header}, nil
}
