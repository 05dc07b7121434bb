package model

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Layout: [8 bytes header size, uint64 LE][JSON header][tensor data].

var ErrUnsupportedDType = errors.New("unsupported tensor dtype")

const maxHeaderSize = 100 << 20

type tensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

type safetensors struct {
	file       *os.File
	metadata   map[string]string
	tensors    map[string]tensorInfo
	dataOffset int64
}

func openSafetensors(path string) (*safetensors, error) {
	//nolint:gosec // model path is operator supplied
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var size uint64
	if err := binary.Read(f, binary.LittleEndian, &size); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read header size: %w", err)
	}
	if size == 0 || size > maxHeaderSize {
		_ = f.Close()
		return nil, fmt.Errorf("invalid header size %d", size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf, &raw); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("parse header: %w", err)
	}

	st := &safetensors{
		file:       f,
		tensors:    make(map[string]tensorInfo, len(raw)),
		dataOffset: int64(8 + size), //nolint:gosec // bounded by maxHeaderSize
	}
	for name, msg := range raw {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &st.metadata); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("parse metadata: %w", err)
			}
			continue
		}
		var info tensorInfo
		if err := json.Unmarshal(msg, &info); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("parse tensor %s: %w", name, err)
		}
		st.tensors[name] = info
	}
	return st, nil
}

func (s *safetensors) Close() error {
	return s.file.Close()
}

// read returns the tensor's shape and its values widened to float64.
func (s *safetensors) read(name string) ([]int, []float64, error) {
	info, ok := s.tensors[name]
	if !ok {
		return nil, nil, fmt.Errorf("tensor %s not found", name)
	}

	var width int
	switch info.DType {
	case "F32":
		width = 4
	case "F64":
		width = 8
	default:
		return nil, nil, fmt.Errorf("tensor %s: %w %q", name, ErrUnsupportedDType, info.DType)
	}

	n := 1
	for _, d := range info.Shape {
		n *= d
	}
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if start < 0 || end-start != int64(n*width) {
		return nil, nil, fmt.Errorf("tensor %s: data offsets [%d, %d] do not match shape %v",
			name, start, end, info.Shape)
	}

	data := make([]byte, end-start)
	if _, err := s.file.ReadAt(data, s.dataOffset+start); err != nil {
		return nil, nil, fmt.Errorf("read tensor %s: %w", name, err)
	}

	out := make([]float64, n)
	for i := range out {
		if width == 4 {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		} else {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	}
	return info.Shape, out, nil
}
