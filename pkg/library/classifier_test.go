package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		relPath string
		want    Part
	}{
		{
			name:    "volume index",
			relPath: "Yotsuba/Volume 01.mokuro",
			want:    Part{Role: RoleVolumeIndex, SeriesKey: "Yotsuba", VolumeKey: "Volume 01"},
		},
		{
			name:    "volume page",
			relPath: "Yotsuba/Volume 01/001.jpg",
			want:    Part{Role: RoleVolumePage, SeriesKey: "Yotsuba", VolumeKey: "Volume 01"},
		},
		{
			name:    "volume page with uppercase extension",
			relPath: "Yotsuba/Volume 01/001.PNG",
			want:    Part{Role: RoleVolumePage, SeriesKey: "Yotsuba", VolumeKey: "Volume 01"},
		},
		{
			name:    "series metadata is self named",
			relPath: "Yotsuba/Yotsuba.json",
			want:    Part{Role: RoleSeriesMetadata, SeriesKey: "Yotsuba"},
		},
		{
			name:    "series cover is self named",
			relPath: "Yotsuba/Yotsuba.webp",
			want:    Part{Role: RoleSeriesCover, SeriesKey: "Yotsuba"},
		},
		{
			name:    "json that is not self named is ignored",
			relPath: "Yotsuba/notes.json",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "image directly under series that is not self named is ignored",
			relPath: "Yotsuba/random.jpg",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "root level image is ignored",
			relPath: "scan.jpg",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "root level index is ignored",
			relPath: "Volume 01.mokuro",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "html render output is ignored",
			relPath: "Yotsuba/Volume 01.html",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "ocr cache directory is ignored",
			relPath: "Yotsuba/_ocr/Volume 01/001.json",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "nested ocr cache directory is ignored",
			relPath: "Yotsuba/Volume 01/_ocr/001.jpg",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "unknown extension is ignored",
			relPath: "Yotsuba/Volume 01/notes.txt",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "path traversal is ignored",
			relPath: "../../etc/passwd.jpg",
			want:    Part{Role: RoleIgnored},
		},
		{
			name:    "backslash separators are normalized",
			relPath: `Yotsuba\Volume 01\001.jpg`,
			want:    Part{Role: RoleVolumePage, SeriesKey: "Yotsuba", VolumeKey: "Volume 01"},
		},
		{
			name:    "deeply nested page keys off the closest two directories",
			relPath: "backup/manga/Yotsuba/Volume 01/001.jpg",
			want:    Part{Role: RoleVolumePage, SeriesKey: "Yotsuba", VolumeKey: "Volume 01"},
		},
		{
			name:    "empty path is ignored",
			relPath: "",
			want:    Part{Role: RoleIgnored},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.relPath))
		})
	}
}
