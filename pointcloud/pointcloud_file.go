package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// ToPCD writes the cloud as a PCD v0.7 file with float32 x y z fields. An organized cloud keeps its
// WIDTH and HEIGHT and its placeholders, written as nan, so readers can map points back to pixels.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	var dataType string
	switch outputType {
	case PCDAscii:
		dataType = "ascii"
	case PCDBinary:
		dataType = "binary"
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unknown PCD type %d", outputType)
	}

	if _, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		cloud.Width(),
		cloud.Height(),
		cloud.Size(),
		dataType,
	); err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	var err error
	buf := make([]byte, 12)
	cloud.Iterate(0, 0, func(pos r3.Vector) bool {
		switch pcdtype {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%s %s %s\n", formatPCDFloat(pos.X), formatPCDFloat(pos.Y), formatPCDFloat(pos.Z))
		case PCDCompressed:
			err = errors.New("compressed PCD not yet implemented")
		}
		return err == nil
	})
	return err
}

func formatPCDFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(float64(float32(v)), 'g', -1, 32)
}

const (
	pcdCommentChar       = "#"
	maxPCDPreallocPoints = 1 << 16
)

type pcdHeader struct {
	fields string
	size   string
	typ    string
	count  string
	width  int
	height int
	points int
	data   PCDType
}

// ReadPCD reads a PCD file holding float32 x y z fields, as written by ToPCD, into an organized
// cloud of the file's WIDTH x HEIGHT.
func ReadPCD(inRaw io.Reader) (*Organized, error) {
	in := bufio.NewReader(inRaw)
	header, err := readPCDHeader(in)
	if err != nil {
		return nil, err
	}

	// the header is untrusted, so the slice grows with the data actually read
	points := make([]r3.Vector, 0, min(header.points, maxPCDPreallocPoints))
	switch header.data {
	case PCDAscii:
		points, err = readPCDAscii(in, points, header.points)
	case PCDBinary:
		points, err = readPCDBinary(in, points, header.points)
	case PCDCompressed:
		err = errors.New("compressed PCD not yet implemented")
	}
	if err != nil {
		return nil, err
	}
	return NewOrganizedFromPoints(header.width, header.height, points)
}

func readPCDHeader(in *bufio.Reader) (pcdHeader, error) {
	var header pcdHeader
	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return header, errors.Wrap(err, "error reading PCD header")
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)
		switch name {
		case "VERSION", "VIEWPOINT":
		case "FIELDS":
			header.fields = value
		case "SIZE":
			header.size = value
		case "TYPE":
			header.typ = value
		case "COUNT":
			header.count = value
		case "WIDTH":
			header.width, err = strconv.Atoi(value)
		case "HEIGHT":
			header.height, err = strconv.Atoi(value)
		case "POINTS":
			header.points, err = strconv.Atoi(value)
		case "DATA":
			switch value {
			case "ascii":
				header.data = PCDAscii
			case "binary":
				header.data = PCDBinary
			case "binary_compressed":
				header.data = PCDCompressed
			default:
				return header, errors.Errorf("unknown PCD DATA type %q", value)
			}
			return header, header.check()
		default:
			return header, errors.Errorf("unknown PCD header line %q", line)
		}
		if err != nil {
			return header, errors.Wrapf(err, "error parsing PCD %s", name)
		}
	}
}

func (header *pcdHeader) check() error {
	if header.fields != "x y z" || header.size != "4 4 4" || header.typ != "F F F" {
		return errors.Errorf("unsupported PCD fields %q with sizes %q and types %q", header.fields, header.size, header.typ)
	}
	if header.count != "" && header.count != "1 1 1" {
		return errors.Errorf("unsupported PCD counts %q", header.count)
	}
	size, err := checkedSize(header.width, header.height)
	if err != nil {
		return errors.Wrap(err, "bad PCD WIDTH or HEIGHT")
	}
	if header.points != size {
		return errors.Errorf("PCD has %d points but is %dx%d", header.points, header.width, header.height)
	}
	return nil
}

func readPCDAscii(in *bufio.Reader, points []r3.Vector, numPoints int) ([]r3.Vector, error) {
	for i := 0; i < numPoints; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "error reading PCD point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != 3 {
			return nil, errors.Errorf("PCD point %d has %d values, expected 3", i, len(tokens))
		}
		var coords [3]float64
		for j, token := range tokens {
			coords[j], err = strconv.ParseFloat(token, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "error parsing PCD point %d", i)
			}
		}
		points = append(points, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}
	return points, nil
}

func readPCDBinary(in *bufio.Reader, points []r3.Vector, numPoints int) ([]r3.Vector, error) {
	buf := make([]byte, 12)
	for i := 0; i < numPoints; i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, errors.Wrapf(err, "error reading PCD point %d", i)
		}
		points = append(points, r3.Vector{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))),
		})
	}
	return points, nil
}

// WriteToLASFile writes the valid points of the cloud out to a LAS file. Placeholders are
// skipped since LAS has no notion of an organized cloud.
func WriteToLASFile(cloud PointCloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: 0,
	}); err != nil {
		return
	}

	cloud.Iterate(0, 0, func(pos r3.Vector) bool {
		if !IsValidPoint(pos) {
			return true
		}
		pr0 := &lidario.PointRecord0{
			X: pos.X,
			Y: pos.Y,
			Z: pos.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			ScanAngle:     0,
			UserData:      0,
			PointSourceID: 1,
		}
		if lerr := lf.AddLasPoint(pr0); lerr != nil {
			err = lerr
			return false
		}
		return true
	})
	return
}
