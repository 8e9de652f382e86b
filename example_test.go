package ecsfs_test

import (
	"fmt"

	"github.com/ecsfs/ecsfs"
	"github.com/ecsfs/ecsfs/internal/memdev"
)

// ExampleFS_basicUsage mounts a freshly formatted in-memory image, creates
// a file, writes to it, and reads the contents back.
func ExampleFS_basicUsage() {
	dev := memdev.New(10)
	dev.Open()
	var f ecsfs.Formatter
	f.Format(dev, ecsfs.FormatConfig{TotalBlocks: 10, FATBlocks: 1})

	fsys := ecsfs.New(nil)
	if err := fsys.Mount(dev); err != nil {
		panic(err)
	}
	defer fsys.Unmount()

	if err := fsys.Create("greeting.txt"); err != nil {
		panic(err)
	}

	file, err := fsys.Open("greeting.txt")
	if err != nil {
		panic(err)
	}
	if _, err := file.Write([]byte("hello, ecsfs")); err != nil {
		panic(err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		panic(err)
	}

	buf := make([]byte, 12)
	n, err := file.Read(buf)
	if err != nil {
		panic(err)
	}
	if err := file.Close(); err != nil {
		panic(err)
	}

	fmt.Println(string(buf[:n]))
	// Output: hello, ecsfs
}
