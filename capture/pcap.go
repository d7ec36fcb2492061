package capture

import (
	"io"
	"os"

	"github.com/google/gopacket/pcapgo"
)

// OpenPcap opens path as a libpcap capture file and returns a Source that
// yields each frame's stripped payload via StripHeaders. It reads frames
// with pcapgo rather than decoding full gopacket layers, since the only
// thing C1 needs out of a frame is the byte range past its headers.
func OpenPcap(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &BadCaptureFile{Path: path, Cause: err}
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, &BadCaptureFile{Path: path, Cause: err}
	}
	return &pcapSource{path: path, f: f, r: r}, nil
}

type pcapSource struct {
	path string
	f    *os.File
	r    *pcapgo.Reader
}

func (s *pcapSource) Next() ([]byte, error) {
	for {
		data, _, err := s.r.ReadPacketData()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &BadCaptureFile{Path: s.path, Cause: err}
		}
		payload := StripHeaders(data)
		if len(payload) > 0 {
			return payload, nil
		}
	}
}

func (s *pcapSource) Close() error {
	return s.f.Close()
}
