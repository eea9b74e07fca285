package watcher

// FilesystemType is a coarse classification of the filesystem holding the
// watched files. Only the local/remote distinction matters to the watcher.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeFUSE
)

func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// isRemoteFilesystem reports whether change notifications from the kernel
// cannot be trusted on t. FUSE is included since many FUSE mounts are
// network backed (sshfs, cloud drives).
func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeFUSE:
		return true
	}
	return false
}
