package avatar_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/womenconnect/platform/internal/domain/avatar"
)

func encodePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h, enough
// for image.DecodeConfig but with no pixel data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcess(t *testing.T) {
	Convey("Given a large landscape png", t, func() {
		data := encodePNG(800, 400)

		Convey("When processing it", func() {
			out, err := avatar.Process(bytes.NewReader(data), 0, 200)
			So(err, ShouldBeNil)

			Convey("Then it is scaled to fit and re-encoded as png", func() {
				img, format, err := image.Decode(bytes.NewReader(out))
				So(err, ShouldBeNil)
				So(format, ShouldEqual, "png")
				So(img.Bounds().Dx(), ShouldEqual, 200)
				So(img.Bounds().Dy(), ShouldEqual, 100)
			})
		})
	})

	Convey("Given a small jpeg", t, func() {
		img := image.NewRGBA(image.Rect(0, 0, 40, 60))
		var buf bytes.Buffer
		So(jpeg.Encode(&buf, img, nil), ShouldBeNil)

		Convey("Then it keeps its size", func() {
			out, err := avatar.Process(&buf, 0, 0)
			So(err, ShouldBeNil)
			decoded, _, err := image.Decode(bytes.NewReader(out))
			So(err, ShouldBeNil)
			So(decoded.Bounds().Dx(), ShouldEqual, 40)
			So(decoded.Bounds().Dy(), ShouldEqual, 60)
		})
	})

	Convey("Given a text file", t, func() {
		_, err := avatar.Process(strings.NewReader("definitely not an image"), 0, 0)
		So(errors.Is(err, avatar.ErrNotImage), ShouldBeTrue)
	})

	Convey("Given a small file declaring huge dimensions", t, func() {
		data := pngHeader(16000, 16000)

		Convey("Then it is rejected before decoding", func() {
			_, err := avatar.Process(bytes.NewReader(data), 0, 0)
			So(errors.Is(err, avatar.ErrTooLarge), ShouldBeTrue)
		})
	})

	Convey("Given an upload over the limit", t, func() {
		data := encodePNG(50, 50)
		_, err := avatar.Process(bytes.NewReader(data), int64(len(data)-1), 0)
		So(errors.Is(err, avatar.ErrTooLarge), ShouldBeTrue)
	})
}

func TestFit(t *testing.T) {
	Convey("Given various source dimensions", t, func() {
		cases := []struct{ w, h, size, ew, eh int }{
			{100, 100, 256, 100, 100},
			{512, 512, 256, 256, 256},
			{1000, 10, 100, 100, 1},
			{10, 1000, 100, 1, 100},
			{300, 600, 150, 75, 150},
			{5000, 1, 100, 100, 1},
		}
		for _, c := range cases {
			w, h := avatar.Fit(c.w, c.h, c.size)
			So(w, ShouldEqual, c.ew)
			So(h, ShouldEqual, c.eh)
		}
	})
}
