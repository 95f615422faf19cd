package lut

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseCubeFile reads a 3D table in the .cube text format used by Resolve and
// Adobe tools. Values are scaled from [DOMAIN_MIN, DOMAIN_MAX] to 8-bit.
func ParseCubeFile(r io.Reader) (*Cube, error) {
	var (
		size      int
		data      []byte
		domainMin = [3]float64{0, 0, 0}
		domainMax = [3]float64{1, 1, 1}
		line      int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		switch strings.ToUpper(fields[0]) {
		case "TITLE":
			continue
		case "LUT_1D_SIZE":
			return nil, fmt.Errorf("lut: line %d: 1D tables are not supported", line)
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("lut: line %d: malformed LUT_3D_SIZE", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 || n > MaxSize {
				return nil, fmt.Errorf("lut: line %d: invalid LUT_3D_SIZE %q", line, fields[1])
			}
			size = n
			data = make([]byte, 0, ByteLen(n))
			continue
		case "DOMAIN_MIN", "DOMAIN_MAX":
			v, err := parseTriplet(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("lut: line %d: %w", line, err)
			}
			if strings.EqualFold(fields[0], "DOMAIN_MIN") {
				domainMin = v
			} else {
				domainMax = v
			}
			continue
		}

		if size == 0 {
			return nil, fmt.Errorf("lut: line %d: data before LUT_3D_SIZE", line)
		}
		v, err := parseTriplet(fields)
		if err != nil {
			return nil, fmt.Errorf("lut: line %d: %w", line, err)
		}
		if len(data) >= ByteLen(size) {
			return nil, fmt.Errorf("lut: line %d: more entries than LUT_3D_SIZE allows", line)
		}
		for i := range v {
			data = append(data, quantize(v[i], domainMin[i], domainMax[i]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lut: read: %w", err)
	}
	if size == 0 {
		return nil, fmt.Errorf("lut: missing LUT_3D_SIZE")
	}
	return New(size, data)
}

// LoadFile parses a .cube file from disk.
func LoadFile(path string) (*Cube, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lut: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseCubeFile(f)
}

func parseTriplet(fields []string) ([3]float64, error) {
	var v [3]float64
	if len(fields) != 3 {
		return v, fmt.Errorf("expected 3 values, got %d", len(fields))
	}
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v, fmt.Errorf("invalid value %q", f)
		}
		v[i] = x
	}
	return v, nil
}

func quantize(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 0
	}
	n := (v - lo) / (hi - lo)
	switch {
	case n <= 0:
		return 0
	case n >= 1:
		return 255
	}
	return uint8(n*255 + 0.5)
}
