package roster

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/namepick/internal/foundation"
)

// Files names the two roster inputs and where backups of them go.
type Files struct {
	RosterPath string // full population, one identity per line
	FemalePath string // female subset, must be contained in the roster
	BackupDir  string // timestamped backups for encoding/subset repairs
}

// sample content written by Scaffold when the files do not exist yet.
const (
	sampleRoster = "# lines starting with # are skipped\nname1\nname2\nname3\nfname1\nfname2\n"
	sampleFemale = "# lines starting with # are skipped\nfname1\nfname2\n"
)

// Load reads both roster files (repairing encodings when needed) and builds
// the validated population.
func Load(files Files) (*Roster, error) {
	allLines, err := ReadLines(files.RosterPath, files.BackupDir)
	if err != nil {
		return nil, err
	}
	femaleLines, err := ReadLines(files.FemalePath, files.BackupDir)
	if err != nil {
		return nil, err
	}
	return Build(allLines, femaleLines)
}

// Scaffold creates commented sample roster files for any that are missing.
// Existing files are left alone.
func Scaffold(files Files) error {
	entries := []struct {
		path    string
		content string
	}{
		{files.RosterPath, sampleRoster},
		{files.FemalePath, sampleFemale},
	}
	for _, e := range entries {
		if _, err := os.Stat(e.path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return foundation.PersistenceError("stat roster file").
				WithComponent("roster").
				WithCause(err).
				WithContext(foundation.Fields{"path": e.path}).
				Build()
		}
		if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
			return foundation.PersistenceError("create roster directory").
				WithComponent("roster").
				WithCause(err).
				Build()
		}
		if err := os.WriteFile(e.path, []byte(e.content), 0o644); err != nil {
			return foundation.PersistenceError("write sample roster file").
				WithComponent("roster").
				WithCause(err).
				WithContext(foundation.Fields{"path": e.path}).
				Build()
		}
	}
	return nil
}
