package importer

import (
	"io"

	"github.com/xuri/excelize/v2"
)

func WriteTemplate(w io.Writer, cat Category) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetNames[cat]
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := make([]any, 0, len(Headers[cat]))
	for _, h := range Headers[cat] {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	return f.Write(w)
}
