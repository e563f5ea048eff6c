package stream

import (
	"io"
)

// teeReadCloser forwards reads from an upstream body while copying every
// byte into a pipe for the recording consumer.
type teeReadCloser struct {
	reader io.Reader
	body   io.ReadCloser
	pw     *io.PipeWriter
}

// TeeBody splits an upstream response body in two:
//   - the returned ReadCloser feeds the downstream client and must be
//     closed by it
//   - the returned PipeReader feeds the background recorder and sees EOF
//     when the client side finishes or fails
func TeeBody(body io.ReadCloser) (io.ReadCloser, *io.PipeReader) {
	pr, pw := io.Pipe()
	return &teeReadCloser{
		reader: io.TeeReader(body, pw),
		body:   body,
		pw:     pw,
	}, pr
}

func (t *teeReadCloser) Read(p []byte) (int, error) {
	n, err := t.reader.Read(p)
	if err != nil {
		// Propagate EOF or failure to the recorder side so it stops too.
		t.pw.CloseWithError(err)
	}
	return n, err
}

func (t *teeReadCloser) Close() error {
	t.pw.Close()
	return t.body.Close()
}
