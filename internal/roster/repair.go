package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/namepick/internal/foundation"
	"git.home.luguber.info/inful/namepick/internal/util/sets"
)

// RepairMode selects how a subset violation is resolved. There is no ignore
// mode: the roster cannot be built while the subset is inconsistent.
type RepairMode string

const (
	// RepairAddToRoster appends the missing identities to the full roster.
	RepairAddToRoster RepairMode = "add_to_roster"
	// RepairRemoveFromSubset drops the unknown identities from the female
	// subset file.
	RepairRemoveFromSubset RepairMode = "remove_from_subset"
)

const repairHeader = "# lines starting with # are skipped"

// Repair rewrites one of the roster files so the female subset becomes
// consistent with the full roster. The file being modified is backed up with
// a timestamp first. Returns the number of identities affected.
func Repair(files Files, mode RepairMode) (int, error) {
	switch mode {
	case RepairAddToRoster, RepairRemoveFromSubset:
	default:
		return 0, foundation.ValidationError(fmt.Sprintf("unknown repair mode %q", mode)).
			WithComponent("roster").
			Build()
	}

	allLines, err := ReadLines(files.RosterPath, files.BackupDir)
	if err != nil {
		return 0, err
	}
	femaleLines, err := ReadLines(files.FemalePath, files.BackupDir)
	if err != nil {
		return 0, err
	}

	all := identitySet(ParseLines(allLines))
	female := identitySet(ParseLines(femaleLines))

	var invalid []string
	for identity := range female {
		if !all.Has(identity) {
			invalid = append(invalid, identity)
		}
	}
	if len(invalid) == 0 {
		return 0, nil
	}

	if mode == RepairAddToRoster {
		union := make([]string, 0, len(all)+len(invalid))
		for identity := range all {
			union = append(union, identity)
		}
		union = append(union, invalid...)
		return len(invalid), rewriteIdentityFile(files.RosterPath, files.BackupDir, union)
	}

	var kept []string
	for identity := range female {
		if all.Has(identity) {
			kept = append(kept, identity)
		}
	}
	return len(invalid), rewriteIdentityFile(files.FemalePath, files.BackupDir, kept)
}

func identitySet(identities []string) sets.Set[string] {
	set := make(sets.Set[string], len(identities))
	for _, identity := range identities {
		set.Add(strings.TrimSpace(identity))
	}
	return set
}

// rewriteIdentityFile backs up the target and replaces its contents with the
// header comment plus the sorted identities.
func rewriteIdentityFile(path, backupDir string, identities []string) error {
	original, err := os.ReadFile(path)
	if err != nil {
		return foundation.PersistenceError("read file before repair").
			WithComponent("roster").
			WithCause(err).
			WithContext(foundation.Fields{"path": path}).
			Build()
	}

	if backupDir != "" {
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return foundation.PersistenceError("create backup directory").
				WithComponent("roster").
				WithCause(err).
				Build()
		}
		stamp := time.Now().Format("20060102_150405")
		backupPath := filepath.Join(backupDir,
			fmt.Sprintf("%s_%s.bak", filepath.Base(path), stamp))
		if err := os.WriteFile(backupPath, original, 0o644); err != nil {
			return foundation.PersistenceError("write repair backup").
				WithComponent("roster").
				WithCause(err).
				WithContext(foundation.Fields{"backup_path": backupPath}).
				Build()
		}
	}

	sort.Strings(identities)
	content := repairHeader + "\n" + strings.Join(identities, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return foundation.PersistenceError("rewrite roster file").
			WithComponent("roster").
			WithCause(err).
			WithContext(foundation.Fields{"path": path}).
			Build()
	}
	return nil
}
