package config

// Default manifest column names. Manifests exported from the tagging service
// use these headers, occasionally with stray whitespace baked in.
const (
	DefaultZipURLField = "SHELF_TAGS"
	DefaultJSONField   = "SHELF_TAGS_IMAGES_URL"
)

// MetadataFileName is the shared metadata log written alongside the images.
const MetadataFileName = "metadata.txt"

// Config holds application settings
type Config struct {
	ManifestPath string
	OutputDir    string
	DbPath       string
	StartIndex   int
	ZipURLField  string
	JSONField    string
	RowLimit     int
}
