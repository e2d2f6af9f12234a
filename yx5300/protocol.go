// Package yx5300 talks to the YX5300 serial MP3 module.
//
// Every frame on the wire is 10 bytes:
//
//	7E FF 06 CMD FB DH DL CKH CKL EF
//
// where FB asks the module to acknowledge the command and the checksum is the two's complement of the sum of
// the six bytes from FF up to DL.
package yx5300

import (
	"encoding/binary"
	"fmt"
	"github.com/cockroachdb/errors"
)

const (
	frameStart   = 0x7E
	frameVersion = 0xFF
	frameLength  = 0x06
	frameEnd     = 0xEF
	feedback     = 0x01
	FrameSize    = 10

	// MaxVolume is the loudest setting the module accepts.
	MaxVolume = 30
	// BaudRate is fixed by the module.
	BaudRate = 9600
)

// Command codes.
const (
	cmdNext           = 0x01
	cmdPrev           = 0x02
	cmdSetVolume      = 0x06
	cmdSelectDevice   = 0x09
	cmdSleep          = 0x0A
	cmdWakeUp         = 0x0B
	cmdReset          = 0x0C
	cmdPlay           = 0x0D
	cmdPause          = 0x0E
	cmdPlayFolderFile = 0x0F
	cmdStop           = 0x16

	cmdQueryStatus       = 0x42
	cmdQueryVolume       = 0x43
	cmdQueryEqualizer    = 0x44
	cmdQueryTotalFiles   = 0x48
	cmdQueryPlaying      = 0x4C
	cmdQueryFolderFiles  = 0x4E
	cmdQueryTotalFolders = 0x4F

	deviceTF = 0x02
)

var (
	ErrChecksum = errors.New("checksum mismatch")
	ErrFraming  = errors.New("malformed frame")
	ErrVersion  = errors.New("unsupported protocol version")
)

// Command is a request for the module. Data is sent big endian in DH/DL.
type Command struct {
	Code byte
	Data uint16
}

func (c Command) String() string {
	name, ok := commandNames[c.Code]
	if !ok {
		name = fmt.Sprintf("CMD_0x%02X", c.Code)
	}
	return fmt.Sprintf("%v(0x%04X)", name, c.Data)
}

var commandNames = map[byte]string{
	cmdNext:              "NEXT",
	cmdPrev:              "PREV",
	cmdSetVolume:         "SET_VOLUME",
	cmdSelectDevice:      "SEL_DEV",
	cmdSleep:             "SLEEP",
	cmdWakeUp:            "WAKE_UP",
	cmdReset:             "RESET",
	cmdPlay:              "PLAY",
	cmdPause:             "PAUSE",
	cmdPlayFolderFile:    "PLAY_FOLDER_FILE",
	cmdStop:              "STOP",
	cmdQueryStatus:       "QUERY_STATUS",
	cmdQueryVolume:       "QUERY_VOLUME",
	cmdQueryEqualizer:    "QUERY_EQUALIZER",
	cmdQueryTotalFiles:   "QUERY_TOT_FILES",
	cmdQueryPlaying:      "QUERY_PLAYING",
	cmdQueryFolderFiles:  "QUERY_FLDR_FILES",
	cmdQueryTotalFolders: "QUERY_TOT_FLDR",
}

func WakeUp() Command { return Command{Code: cmdWakeUp} }
func Sleep() Command  { return Command{Code: cmdSleep} }
func Stop() Command   { return Command{Code: cmdStop} }

// PlayFolderFile plays file number file (1 based) in folder number folder.
func PlayFolderFile(folder, file uint8) Command {
	return Command{Code: cmdPlayFolderFile, Data: uint16(folder)<<8 | uint16(file)}
}

// SetVolume clamps v to MaxVolume.
func SetVolume(v uint8) Command {
	if v > MaxVolume {
		v = MaxVolume
	}
	return Command{Code: cmdSetVolume, Data: uint16(v)}
}

// SelectTF makes the module read from the TF card slot.
func SelectTF() Command          { return Command{Code: cmdSelectDevice, Data: deviceTF} }
func QueryStatus() Command       { return Command{Code: cmdQueryStatus} }
func QueryVolume() Command       { return Command{Code: cmdQueryVolume} }
func QueryTotalFiles() Command   { return Command{Code: cmdQueryTotalFiles} }
func QueryTotalFolders() Command { return Command{Code: cmdQueryTotalFolders} }

func QueryFolderFiles(folder uint8) Command {
	return Command{Code: cmdQueryFolderFiles, Data: uint16(folder)}
}

// StatusCode identifies a message from the module. OK, TIMEOUT, VERSION and CHECKSUM never appear on the wire, they
// are produced locally.
type StatusCode byte

const (
	StatusOK         StatusCode = 0x00
	StatusTimeout    StatusCode = 0x01
	StatusVersion    StatusCode = 0x02
	StatusChecksum   StatusCode = 0x03
	StatusTFInsert   StatusCode = 0x3A
	StatusTFRemove   StatusCode = 0x3B
	StatusFileEnd    StatusCode = 0x3D
	StatusInit       StatusCode = 0x3F
	StatusErrFile    StatusCode = 0x40
	StatusAckOK      StatusCode = 0x41
	StatusStatus     StatusCode = 0x42
	StatusVolume     StatusCode = 0x43
	StatusEqualizer  StatusCode = 0x44
	StatusTotFiles   StatusCode = 0x48
	StatusPlaying    StatusCode = 0x4C
	StatusFldrFiles  StatusCode = 0x4E
	StatusTotFolders StatusCode = 0x4F
)

func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "STS_OK"
	case StatusTimeout:
		return "STS_TIMEOUT"
	case StatusVersion:
		return "STS_VERSION"
	case StatusChecksum:
		return "STS_CHECKSUM"
	case StatusTFInsert:
		return "STS_TF_INSERT"
	case StatusTFRemove:
		return "STS_TF_REMOVE"
	case StatusFileEnd:
		return "STS_FILE_END"
	case StatusInit:
		return "STS_INIT"
	case StatusErrFile:
		return "STS_ERR_FILE"
	case StatusAckOK:
		return "STS_ACK_OK"
	case StatusStatus:
		return "STS_STATUS"
	case StatusVolume:
		return "STS_VOLUME"
	case StatusEqualizer:
		return "STS_EQUALIZER"
	case StatusTotFiles:
		return "STS_TOT_FILES"
	case StatusPlaying:
		return "STS_PLAYING"
	case StatusFldrFiles:
		return "STS_FLDR_FILES"
	case StatusTotFolders:
		return "STS_TOT_FLDR"
	default:
		return fmt.Sprintf("STS_??? 0x%02X", byte(s))
	}
}

// Status is a message from the module. Data is advisory, e.g. the file number for STS_FILE_END.
type Status struct {
	Code StatusCode
	Data uint16
}

func (s Status) String() string {
	return fmt.Sprintf("%v, 0x%X", s.Code, s.Data)
}

func checksum(b []byte) uint16 {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}
	return -sum
}

// Encode builds the wire frame for c.
func Encode(c Command) []byte {
	f := make([]byte, FrameSize)
	f[0] = frameStart
	f[1] = frameVersion
	f[2] = frameLength
	f[3] = c.Code
	f[4] = feedback
	binary.BigEndian.PutUint16(f[5:7], c.Data)
	binary.BigEndian.PutUint16(f[7:9], checksum(f[1:7]))
	f[9] = frameEnd
	return f
}

// Decode parses a single frame. A frame with a bad version or checksum still decodes, to STS_VERSION or
// STS_CHECKSUM, along with the matching error.
func Decode(f []byte) (Status, error) {
	if len(f) != FrameSize {
		return Status{}, errors.Wrapf(ErrFraming, "got %d bytes", len(f))
	}
	if f[0] != frameStart || f[9] != frameEnd || f[2] != frameLength {
		return Status{}, errors.Wrapf(ErrFraming, "% X", f)
	}
	if f[1] != frameVersion {
		return Status{Code: StatusVersion}, errors.Wrapf(ErrVersion, "0x%02X", f[1])
	}
	if want := binary.BigEndian.Uint16(f[7:9]); want != checksum(f[1:7]) {
		return Status{Code: StatusChecksum}, errors.Wrapf(ErrChecksum, "% X", f)
	}
	return Status{Code: StatusCode(f[3]), Data: binary.BigEndian.Uint16(f[5:7])}, nil
}
