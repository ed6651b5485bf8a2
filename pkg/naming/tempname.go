package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Engine-owned file name prefixes. The reconciler and the resolver match
// against these to recognise their own artifacts.
const (
	TempPrefix     = ".ariamove.tmp."
	LockFileName   = ".ariamove.dir.lock"
	ProbePrefix    = ".ariamove.probe."
	ConfigTmpInfix = ".ariamove.config.tmp."
	// DisplacedPrefix marks an existing destination directory set aside
	// while an Overwrite move replaces it
	DisplacedPrefix = ".ariamove.old."
)

// .ariamove.tmp.<pid>.<millis>.<seq>.<key>
var tempNameRE = regexp.MustCompile(`^\.ariamove\.tmp\.(\d+)\.(\d+)\.(\d+)\.([0-9a-f]{16})$`)

// TempName describes a parsed temp artifact name
type TempName struct {
	PID     int
	Created time.Time
	Seq     uint64
	// Key identifies the destination name the artifact will be promoted to
	Key string
}

// String renders the artifact base name.
func (t TempName) String() string {
	return fmt.Sprintf("%s%d.%d.%d.%s", TempPrefix, t.PID, t.Created.UnixMilli(), t.Seq, t.Key)
}

// IsTempName reports whether name is one of the engine's temp artifacts.
func IsTempName(name string) bool {
	return tempNameRE.MatchString(name)
}

// IsEngineFile reports whether name is any engine-owned entry: a temp
// artifact, a lock file, a writability probe or a displaced destination.
func IsEngineFile(name string) bool {
	if name == LockFileName || IsTempName(name) {
		return true
	}
	return strings.HasPrefix(name, ProbePrefix) && len(name) > len(ProbePrefix) ||
		strings.HasPrefix(name, DisplacedPrefix) && len(name) > len(DisplacedPrefix)
}

// DisplacedName returns the name an existing destination called name is
// renamed to while pid replaces it.
func DisplacedName(pid int, name string) string {
	return Fit(DisplacedPrefix+strconv.Itoa(pid)+"."+name, "", "")
}

// ParseTempName decodes an artifact base name.
func ParseTempName(name string) (TempName, bool) {
	m := tempNameRE.FindStringSubmatch(name)
	if m == nil {
		return TempName{}, false
	}
	pid, err := strconv.Atoi(m[1])
	if err != nil {
		return TempName{}, false
	}
	millis, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return TempName{}, false
	}
	seq, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return TempName{}, false
	}
	return TempName{PID: pid, Created: time.UnixMilli(millis), Seq: seq, Key: m[4]}, true
}
