package staticfiles

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var embedded embed.FS

func EmbeddedFS() fs.FS {
	return embedded
}
