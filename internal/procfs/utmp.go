package procfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/osiriscare/vpnsentry/internal/model"
)

const utmpUserProcess = 7
const utmpRecordSize = 384

// utmpRecord mirrors glibc's struct utmp (384 bytes on 64-bit Linux).
type utmpRecord struct {
	Type    int16
	_       [2]byte // alignment padding
	PID     int32
	Line    [32]byte
	ID      [4]byte
	User    [32]byte
	Host    [256]byte
	ExitE1  int16
	ExitE2  int16
	Session int32
	TVSec   int32
	TVUsec  int32
	AddrV6  [4]int32
	Unused  [20]byte
}

// utmpPaths is tried in order; the first readable path wins.
var utmpPaths = []string{"/var/run/utmp", "/run/utmp"}

// ReadLogins parses the first readable utmp file and returns one UserLogin
// per USER_PROCESS entry with a non-empty user.
func ReadLogins() ([]model.UserLogin, []model.Finding) {
	var data []byte
	var err error
	for _, p := range utmpPaths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, []model.Finding{model.NewFinding(model.Warning,
			fmt.Sprintf("could not read utmp from any of %v: %v", utmpPaths, err))}
	}

	var logins []model.UserLogin
	var findings []model.Finding

	r := bytes.NewReader(data)
	for r.Len() >= utmpRecordSize {
		var rec utmpRecord
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("malformed utmp record: %v", err)))
			break
		}
		if rec.Type != utmpUserProcess {
			continue
		}
		user := cstring(rec.User[:])
		if user == "" {
			continue
		}
		login := model.UserLogin{
			User:     user,
			Terminal: cstring(rec.Line[:]),
			Host:     cstring(rec.Host[:]),
		}
		if rec.TVSec != 0 {
			t := time.Unix(int64(rec.TVSec), int64(rec.TVUsec)*1000)
			login.Timestamp = &t
		}
		logins = append(logins, login)
	}
	return logins, findings
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
