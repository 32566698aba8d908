package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// Fingerprint identifies one input file by path, size and modification time.
type Fingerprint struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Stat fingerprints each path.
func Stat(paths ...string) ([]Fingerprint, error) {
	fps := make([]Fingerprint, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, eris.Wrapf(err, "ledger: stat %s", p)
		}
		fps = append(fps, Fingerprint{Path: p, Size: fi.Size(), ModTime: fi.ModTime().UTC()})
	}
	return fps, nil
}

// InputKey hashes the fingerprints together with a settings string, so a change to
// any input file or to the run settings yields a different key.
func InputKey(settings string, fps []Fingerprint) string {
	h := sha256.New()
	fmt.Fprintf(h, "settings=%s\n", settings)
	for _, fp := range fps {
		fmt.Fprintf(h, "%s|%d|%d\n", fp.Path, fp.Size, fp.ModTime.UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil))
}
