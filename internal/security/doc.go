// Package security confines file access to a single directory.
//
// RootFS implements absfs.FileSystem on top of os.Root, so an exported or
// imported profile file can only be read or written inside the directory
// the user chose, even when the file name contains ".." or a symlink points
// elsewhere.
package security
