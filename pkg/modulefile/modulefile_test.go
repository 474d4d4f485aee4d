package modulefile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleSections() []SectionInput {
	return []SectionInput{
		{Type: SectionModuleInfo, Content: []byte("module-info-bytes")},
		{
			Type: SectionClasses,
			Subsections: []Subsection{
				{Path: "com/example/Widget.class", Content: []byte("classbytes-widget")},
				{Path: "com/example/Gadget.class", Content: []byte("classbytes-gadget")},
			},
		},
		{
			Type: SectionResources,
			Subsections: []Subsection{
				{Path: "com/example/strings.properties", Content: []byte("greeting=hi")},
			},
		},
	}
}

func TestWriteUnsignedParseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUnsigned(&buf, sampleSections()))

	pf, err := Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, pf.Sections, 3)
	require.Equal(t, SectionModuleInfo, pf.Sections[0].Header.Type)
	require.Equal(t, CompressorNone, pf.Sections[0].Header.Compressor)
	require.Equal(t, CompressorPack200Gzip, pf.Sections[1].Header.Compressor)
	require.Equal(t, CompressorGzip, pf.Sections[2].Header.Compressor)

	classes := pf.GetClasses()
	require.Len(t, classes, 2)
	require.Equal(t, "com/example/Widget.class", classes[0].Path)
	require.Equal(t, []byte("classbytes-widget"), classes[0].Bytes)
}

func TestWriteUnsignedRejectsNonModuleInfoFirst(t *testing.T) {
	sections := sampleSections()
	sections[0], sections[1] = sections[1], sections[0]
	var buf bytes.Buffer
	err := WriteUnsigned(&buf, sections)
	require.Error(t, err)
}

func TestWriteUnsignedRejectsEscapingPath(t *testing.T) {
	sections := []SectionInput{
		{Type: SectionModuleInfo, Content: []byte("mi")},
		{
			Type: SectionResources,
			Subsections: []Subsection{
				{Path: "../../etc/passwd", Content: []byte("x")},
			},
		},
	}
	var buf bytes.Buffer
	err := WriteUnsigned(&buf, sections)
	require.Error(t, err)
	var pathErr *PathEscape
	require.ErrorAs(t, err, &pathErr)
}

func TestParseDetectsTamperedSectionContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUnsigned(&buf, sampleSections()))

	tampered := append([]byte(nil), buf.Bytes()...)
	tampered[len(tampered)-1] ^= 0xff // flip a byte inside the last section's compressed content

	_, err := Parse(bytes.NewReader(tampered))
	require.Error(t, err, "a flipped content byte must surface as a decompression failure or a section hash mismatch")
}

type fakeSigner struct {
	envelope []byte
	payload  []byte
}

func (f *fakeSigner) Sign(payload []byte) ([]byte, error) {
	f.payload = append([]byte(nil), payload...)
	return f.envelope, nil
}

func TestWriteSignedProducesVerifiableHashes(t *testing.T) {
	signer := &fakeSigner{envelope: []byte("fake-signature-envelope")}

	var buf bytes.Buffer
	require.NoError(t, WriteSigned(&buf, sampleSections(), signer))
	require.NotEmpty(t, signer.payload, "writer must call Sign with the framed hash list")

	pf, err := Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, pf.Sections, 4, "MODULE_INFO, SIGNATURE, CLASSES, RESOURCES")
	require.Equal(t, SectionSignature, pf.Sections[1].Header.Type)

	_, fHash, err := pf.RecomputeHashes()
	require.NoError(t, err)
	require.Equal(t, pf.Header.Hash, fHash, "stored header hash is the file hash, recomputable with the SIGNATURE section excluded")
}

func TestEventReaderSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUnsigned(&buf, sampleSections()))

	er, err := NewEventReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	var kinds []EventKind
	for {
		ev, err := er.Next()
		if err != nil {
			break
		}
		kinds = append(kinds, ev.Kind)
	}

	require.Equal(t, StartFile, kinds[0])
	require.Equal(t, EndFile, kinds[len(kinds)-1])

	var starts, ends int
	for _, k := range kinds {
		if k == StartSection {
			starts++
		}
		if k == EndSection {
			ends++
		}
	}
	require.Equal(t, 3, starts)
	require.Equal(t, 3, ends)
}
