package common

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

const defaultSecretSalt = "equipview-secret"

var (
	snowflakeNode *snowflake.Node
	snodeOnce     sync.Once
)

// UUIDint64 returns a snowflake-based unique id
func UUIDint64() int64 {
	snodeOnce.Do(func() {
		var err error
		snowflakeNode, err = snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
	})
	return snowflakeNode.Generate().Int64()
}

func UUID() string {
	return fmt.Sprintf("%d", UUIDint64())
}

// GetSecretSalt reads the hash salt from the environment, falling back to a
// build-time default for development setups.
func GetSecretSalt() string {
	salt := os.Getenv("EQUIPVIEW_SECRET_SALT")
	if salt == "" {
		return defaultSecretSalt
	}
	return salt
}

func Sha256HashWithSalt(src string, salt string) string {
	h := sha256.New()
	h.Write([]byte(src))
	h.Write([]byte(salt))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// IfEmptyStr returns defval when src is blank
func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}

// FileExists reports whether path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MustMkdir creates dir and all parents, panics on failure
func MustMkdir(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		panic(err)
	}
}
