package jetstream

import "testing"

func TestSubjectRoundTrip(t *testing.T) {
	t.Parallel()

	const id = "7f9c2a31-4f7e-4a0f-9a55-2f8f4a3a9c11"

	reqID, done, ok := ParseSubject(ChunkSubject(id))
	if !ok || done || reqID != id {
		t.Errorf("chunk subject parsed as (%q, %v, %v)", reqID, done, ok)
	}

	reqID, done, ok = ParseSubject(DoneSubject(id))
	if !ok || !done || reqID != id {
		t.Errorf("done subject parsed as (%q, %v, %v)", reqID, done, ok)
	}
}

func TestParseSubjectRejectsForeignSubjects(t *testing.T) {
	t.Parallel()

	for _, subject := range []string{
		"relay.req.",
		"relay.other.abc",
		"foo.bar",
		"relay.req.abc.extra.parts",
	} {
		if _, _, ok := ParseSubject(subject); ok {
			t.Errorf("ParseSubject(%q) ok = true, want false", subject)
		}
	}
}
