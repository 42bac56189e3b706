package types

import "golang.org/x/sys/unix"

// statusErrno maps nfsstat4 codes that are not already POSIX errno values
// (the low-numbered codes below 100 share their numeric value with the
// corresponding errno, per RFC 7530's reuse of the NFSv3 error space) to the
// closest POSIX errno. Used by the error mapper to translate a non-OK
// compound reply status into the negative-errno value callers expect.
var statusErrno = map[uint32]int{
	NFS4ERR_BADHANDLE:           int(unix.EBADF),
	NFS4ERR_BAD_COOKIE:          int(unix.EINVAL),
	NFS4ERR_NOTSUPP:             int(unix.ENOTSUP),
	NFS4ERR_TOOSMALL:            int(unix.ERANGE),
	NFS4ERR_SERVERFAULT:         int(unix.EIO),
	NFS4ERR_BADTYPE:             int(unix.EINVAL),
	NFS4ERR_DELAY:               int(unix.EAGAIN),
	NFS4ERR_SAME:                int(unix.EEXIST),
	NFS4ERR_DENIED:              int(unix.EACCES),
	NFS4ERR_EXPIRED:             int(unix.ESTALE),
	NFS4ERR_LOCKED:              int(unix.EAGAIN),
	NFS4ERR_GRACE:               int(unix.EAGAIN),
	NFS4ERR_FHEXPIRED:           int(unix.ESTALE),
	NFS4ERR_SHARE_DENIED:        int(unix.EACCES),
	NFS4ERR_WRONGSEC:            int(unix.EACCES),
	NFS4ERR_CLID_INUSE:          int(unix.EACCES),
	NFS4ERR_RESOURCE:            int(unix.EAGAIN),
	NFS4ERR_MOVED:               int(unix.ENODEV),
	NFS4ERR_NOFILEHANDLE:        int(unix.EBADF),
	NFS4ERR_MINOR_VERS_MISMATCH: int(unix.ENOTSUP),
	NFS4ERR_STALE_CLIENTID:      int(unix.ESTALE),
	NFS4ERR_STALE_STATEID:       int(unix.ESTALE),
	NFS4ERR_OLD_STATEID:         int(unix.EINVAL),
	NFS4ERR_BAD_STATEID:         int(unix.EINVAL),
	NFS4ERR_BAD_SEQID:           int(unix.EINVAL),
	NFS4ERR_NOT_SAME:            int(unix.EINVAL),
	NFS4ERR_LOCK_RANGE:          int(unix.ENOTSUP),
	NFS4ERR_SYMLINK:             int(unix.EINVAL),
	NFS4ERR_RESTOREFH:           int(unix.EINVAL),
	NFS4ERR_LEASE_MOVED:         int(unix.ENODEV),
	NFS4ERR_ATTRNOTSUPP:         int(unix.ENOTSUP),
	NFS4ERR_NO_GRACE:            int(unix.EINVAL),
	NFS4ERR_RECLAIM_BAD:         int(unix.EINVAL),
	NFS4ERR_RECLAIM_CONFLICT:    int(unix.EINVAL),
	NFS4ERR_BADXDR:              int(unix.EINVAL),
	NFS4ERR_LOCKS_HELD:          int(unix.EAGAIN),
	NFS4ERR_OPENMODE:            int(unix.EACCES),
	NFS4ERR_BADOWNER:            int(unix.EINVAL),
	NFS4ERR_BADCHAR:             int(unix.EINVAL),
	NFS4ERR_BADNAME:             int(unix.EINVAL),
	NFS4ERR_BAD_RANGE:           int(unix.EINVAL),
	NFS4ERR_LOCK_NOTSUPP:        int(unix.ENOTSUP),
	NFS4ERR_OP_ILLEGAL:          int(unix.ENOTSUP),
	NFS4ERR_DEADLOCK:            int(unix.EDEADLK),
	NFS4ERR_FILE_OPEN:           int(unix.EBUSY),
	NFS4ERR_ADMIN_REVOKED:       int(unix.EACCES),
	NFS4ERR_CB_PATH_DOWN:        int(unix.EIO),
}

// StatusErrno returns the POSIX errno (positive) a non-OK nfsstat4 status
// translates to. Status codes below 100 already share their numeric value
// with the corresponding errno (RFC 7530 reuses the NFSv3 error space), so
// those pass through unchanged.
func StatusErrno(status uint32) int {
	if status < 100 {
		return int(status)
	}
	if errno, ok := statusErrno[status]; ok {
		return errno
	}
	return int(unix.EIO)
}
