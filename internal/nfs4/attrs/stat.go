package attrs

import (
	"fmt"

	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/xdr"
)

// blockSize is the fixed logical block size stat records report.
const blockSize = 4096

// Time is an NFSv4 nfstime4: seconds since the epoch plus nanoseconds.
type Time struct {
	Sec  uint64
	Nsec uint32
}

// Stat is the fixed-shape record the attribute decoder (C3) produces from a
// GETATTR reply's fattr4 blob.
type Stat struct {
	Size    uint64
	Ino     uint64
	Mode    uint32
	Nlink   uint32
	UID     uint32
	GID     uint32
	Used    uint64
	Blksize uint32
	Blocks  uint64
	Atime   Time
	Ctime   Time
	Mtime   Time
}

// DecodeStat decodes the fattr4 attrlist4 byte blob accompanying a GETATTR
// reply whose request bitmap was StatRequestBitmap: TYPE, SIZE, FILEID,
// MODE, NUMLINKS, OWNER, OWNER_GROUP, SPACE_USED, TIME_ACCESS,
// TIME_METADATA, TIME_MODIFY, each in ascending bit order. It is total: for
// any buf of any length it either consumes all of it and returns a Stat, or
// returns an error without ever reading past buf's end (property 4).
func DecodeStat(buf []byte) (Stat, error) {
	dec := xdr.NewDecoder(buf)
	var st Stat

	typ, err := dec.Uint32()
	if err != nil {
		return Stat{}, fmt.Errorf("type: %w", err)
	}

	size, err := dec.Uint64()
	if err != nil {
		return Stat{}, fmt.Errorf("size: %w", err)
	}
	st.Size = size

	ino, err := dec.Uint64()
	if err != nil {
		return Stat{}, fmt.Errorf("fileid: %w", err)
	}
	st.Ino = ino

	mode, err := dec.Uint32()
	if err != nil {
		return Stat{}, fmt.Errorf("mode: %w", err)
	}
	st.Mode = mode | fileTypeBits(typ)

	nlink, err := dec.Uint32()
	if err != nil {
		return Stat{}, fmt.Errorf("numlinks: %w", err)
	}
	st.Nlink = nlink

	uid, err := decodeNumericID(dec)
	if err != nil {
		return Stat{}, fmt.Errorf("owner: %w", err)
	}
	st.UID = uid

	gid, err := decodeNumericID(dec)
	if err != nil {
		return Stat{}, fmt.Errorf("owner_group: %w", err)
	}
	st.GID = gid

	used, err := dec.Uint64()
	if err != nil {
		return Stat{}, fmt.Errorf("space_used: %w", err)
	}
	st.Used = used

	if st.Atime, err = decodeTime(dec); err != nil {
		return Stat{}, fmt.Errorf("time_access: %w", err)
	}
	if st.Ctime, err = decodeTime(dec); err != nil {
		return Stat{}, fmt.Errorf("time_metadata: %w", err)
	}
	if st.Mtime, err = decodeTime(dec); err != nil {
		return Stat{}, fmt.Errorf("time_modify: %w", err)
	}

	if dec.Remaining() != 0 {
		return Stat{}, fmt.Errorf("%d trailing bytes after decoding requested attributes", dec.Remaining())
	}

	st.Blksize = blockSize
	st.Blocks = st.Used / blockSize

	return st, nil
}

func decodeTime(dec *xdr.Decoder) (Time, error) {
	sec, err := dec.Uint64()
	if err != nil {
		return Time{}, fmt.Errorf("seconds: %w", err)
	}
	nsec, err := dec.Uint32()
	if err != nil {
		return Time{}, fmt.Errorf("nseconds: %w", err)
	}
	return Time{Sec: sec, Nsec: nsec}, nil
}

// fileTypeBits maps an nfs_ftype4 value to the POSIX mode type bits OR-ed
// into the decoded mode. An unrecognized type contributes no bits, matching
// the original switch's silent default case.
func fileTypeBits(ftype uint32) uint32 {
	switch ftype {
	case types.NF4REG:
		return types.S_IFREG
	case types.NF4DIR:
		return types.S_IFDIR
	case types.NF4BLK:
		return types.S_IFBLK
	case types.NF4CHR:
		return types.S_IFCHR
	case types.NF4LNK:
		return types.S_IFLNK
	case types.NF4SOCK:
		return types.S_IFSOCK
	case types.NF4FIFO:
		return types.S_IFIFO
	default:
		return 0
	}
}

// decodeNumericID decodes an OWNER/OWNER_GROUP string as the client
// supports only: decimal ASCII digits accumulated into a uint32. A
// non-digit byte anywhere in the string is a protocol error ("user@domain"
// form is accepted by RFC 7530 §5.9 but deliberately not supported here).
func decodeNumericID(dec *xdr.Decoder) (uint32, error) {
	raw, err := dec.Opaque()
	if err != nil {
		return 0, err
	}
	var id uint32
	for _, b := range raw {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("Bad digit in fattr4 owner string")
		}
		id = id*10 + uint32(b-'0')
	}
	return id, nil
}
