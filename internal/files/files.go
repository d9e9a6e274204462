package files

import (
	"archive/zip"
	"bufio"
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // needed to decode webp
)

// Pages lists the decodable images in dir in file name order.
func Pages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if _, _, err := decodeConfig(path); err != nil {
			continue
		}
		pages = append(pages, path)
	}

	sort.Strings(pages)
	return pages, nil
}

func decodeConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer f.Close()

	return image.DecodeConfig(bufio.NewReader(f))
}

// CreateCbzArchive writes every page found in sourceDir into a zip archive at cbzPath.
func CreateCbzArchive(sourceDir, cbzPath string) error {
	pages, err := Pages(sourceDir)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return errors.Errorf("no pages found in %s", sourceDir)
	}

	if err := os.MkdirAll(filepath.Dir(cbzPath), os.ModePerm); err != nil {
		return err
	}

	cbzFile, err := os.Create(cbzPath)
	if err != nil {
		return err
	}
	defer cbzFile.Close()

	writeBuf := bufio.NewWriter(cbzFile)
	zipWriter := zip.NewWriter(writeBuf)

	for _, page := range pages {
		if err := addFileToZip(zipWriter, page, filepath.Base(page)); err != nil {
			return errors.Wrapf(err, "could not add %s to archive", page)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return err
	}
	return writeBuf.Flush()
}

// CreatePDF writes every page found in sourceDir into a pdf at pdfPath, one image per page
// with the page sized to the image.
func CreatePDF(sourceDir, pdfPath string) error {
	pages, err := Pages(sourceDir)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return errors.Errorf("no pages found in %s", sourceDir)
	}

	if err := os.MkdirAll(filepath.Dir(pdfPath), os.ModePerm); err != nil {
		return err
	}

	pdf := fpdf.New(fpdf.OrientationPortrait, fpdf.UnitMillimeter, "", "")

	for _, page := range pages {
		name := filepath.Base(page)

		opts, reader, err := pdfImage(page)
		if err != nil {
			return errors.Wrapf(err, "could not read %s", page)
		}

		info := pdf.RegisterImageOptionsReader(name, opts, reader)
		if pdf.Err() {
			return errors.Wrapf(pdf.Error(), "could not register %s", page)
		}

		imgWidth, imgHeight := info.Extent()
		pdf.AddPageFormat(fpdf.OrientationPortrait, fpdf.SizeType{Wd: imgWidth, Ht: imgHeight})
		pdf.ImageOptions(name, 0, 0, imgWidth, imgHeight, false, opts, 0, "")
	}

	return pdf.OutputFileAndClose(pdfPath)
}

// pdfImage returns the page as something fpdf can embed. JPEG and PNG go through unchanged,
// anything else is re-encoded as PNG.
func pdfImage(path string) (fpdf.ImageOptions, io.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fpdf.ImageOptions{}, nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fpdf.ImageOptions{}, nil, err
	}

	switch strings.ToLower(format) {
	case "jpeg":
		return fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(data), nil
	case "png":
		return fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data), nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fpdf.ImageOptions{}, nil, err
	}

	return fpdf.ImageOptions{ImageType: "PNG"}, &buf, nil
}

// addFileToZip adds a single file to the zip archive
func addFileToZip(zipWriter *zip.Writer, filePath, fileName string) error {
	fileToZip, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer fileToZip.Close()

	writer, err := zipWriter.Create(fileName)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, bufio.NewReader(fileToZip))
	return err
}
