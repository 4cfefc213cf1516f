package metadata

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestParseMalformedJSON(t *testing.T) {
	require.Nil(t, Parse(`{"truncated":`, testLogger))
	require.Nil(t, Parse(``, testLogger))
	require.Nil(t, Parse(`   `, testLogger))
}

func TestParseTrailingContent(t *testing.T) {
	require.Nil(t, Parse(`[{"barcode": "1"}] trailing garbage`, testLogger))
	require.Nil(t, Parse(`[] []`, testLogger))
	require.Nil(t, Parse(`[] }`, testLogger))
	// Trailing whitespace is not content.
	require.Len(t, Parse("[{\"barcode\": \"1\"}] \n\t", testLogger), 1)
}

func TestParseNonArray(t *testing.T) {
	require.Nil(t, Parse(`{"a": 1}`, testLogger))
	require.Nil(t, Parse(`"just a string"`, testLogger))
	require.Nil(t, Parse(`42`, testLogger))
}

func TestParseArray(t *testing.T) {
	items := Parse(`[{"barcode": "1"}, {"barcode": "2"}]`, testLogger)
	require.Len(t, items, 2)
}

func TestMatchBasic(t *testing.T) {
	items := Parse(`[
		{"uploaded_image": {"image_filename": " img_1.jpg "}, "barcode": "12345", "barcode_detection_source": "scanner"},
		{"uploaded_image": {"image_filename": "img_2.jpg"}, "barcode": "67890", "barcode_detection_source": null}
	]`, testLogger)
	tags := Match(items)

	require.Len(t, tags, 2)
	require.Equal(t, Tag{Barcode: "12345", Source: "scanner"}, tags["img_1.jpg"])
	require.Equal(t, Tag{Barcode: "67890", Source: ""}, tags["img_2.jpg"])
}

func TestMatchNumericBarcodeKeepsDigits(t *testing.T) {
	items := Parse(`[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": 4006381333931}]`, testLogger)
	tags := Match(items)
	require.Equal(t, "4006381333931", tags["a.jpg"].Barcode)
}

func TestMatchDropsUnusableBarcodes(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"missing barcode", `[{"uploaded_image": {"image_filename": "a.jpg"}}]`},
		{"null barcode", `[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": null}]`},
		{"literal null string", `[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": "null"}]`},
		{"empty barcode", `[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": "  "}]`},
		{"single zero", `[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": "0"}]`},
		{"all zeros", `[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": "000000"}]`},
		{"all zeros with source", `[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": "000", "barcode_detection_source": "scanner"}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tags := Match(Parse(tc.json, testLogger))
			require.Empty(t, tags)
		})
	}
}

func TestMatchZeroPrefixedBarcodeKept(t *testing.T) {
	items := Parse(`[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": "00042"}]`, testLogger)
	tags := Match(items)
	require.Equal(t, "00042", tags["a.jpg"].Barcode)
}

func TestMatchSkipsElementsWithoutFilename(t *testing.T) {
	items := Parse(`[
		{"barcode": "123"},
		{"uploaded_image": {}, "barcode": "123"},
		{"uploaded_image": {"image_filename": "  "}, "barcode": "123"},
		"not an object",
		{"uploaded_image": {"image_filename": "ok.jpg"}, "barcode": "123"}
	]`, testLogger)
	tags := Match(items)
	require.Len(t, tags, 1)
	require.Contains(t, tags, "ok.jpg")
}

func TestMatchLastWriteWinsOnDuplicateFilename(t *testing.T) {
	items := Parse(`[
		{"uploaded_image": {"image_filename": "dup.jpg"}, "barcode": "111"},
		{"uploaded_image": {"image_filename": "dup.jpg"}, "barcode": "222"}
	]`, testLogger)
	tags := Match(items)
	require.Len(t, tags, 1)
	require.Equal(t, "222", tags["dup.jpg"].Barcode)
}

func TestMatchSourceNullString(t *testing.T) {
	items := Parse(`[{"uploaded_image": {"image_filename": "a.jpg"}, "barcode": "1", "barcode_detection_source": "null"}]`, testLogger)
	tags := Match(items)
	require.Equal(t, "", tags["a.jpg"].Source)
}
