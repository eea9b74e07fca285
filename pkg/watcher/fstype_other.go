//go:build !linux

package watcher

// DetectFilesystemType is not implemented off Linux; callers treat the
// result as local.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
