package stage

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/formula"
	"github.com/danieljhkim/brewpkg/internal/fsops"
)

// stageableDirs are the keg subdirectories mirrored into the package.
// Names ending in "Frameworks" are also accepted.
var stageableDirs = map[string]bool{
	"bin":     true,
	"etc":     true,
	"sbin":    true,
	"include": true,
	"share":   true,
	"lib":     true,
}

// IsStageableDir reports whether a top-level keg directory is staged.
func IsStageableDir(name string) bool {
	return stageableDirs[name] || strings.HasSuffix(name, "Frameworks")
}

// Options controls what the Stager includes.
type Options struct {
	// WithoutKegs skips copying the versioned keg into Cellar/.
	WithoutKegs bool

	// Interpreters are base names whose site directory lives in <prefix>/lib.
	Interpreters []string
}

// Stager plans the staging of formula records.
type Stager struct {
	fs           fsops.FS
	paths        config.Paths
	logger       *log.Logger
	withoutKegs  bool
	interpreters map[string]bool
}

// NewStager creates a Stager reading from the Homebrew installation at paths.
func NewStager(fs fsops.FS, paths config.Paths, logger *log.Logger, opts Options) *Stager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	interpreters := make(map[string]bool, len(opts.Interpreters))
	for _, name := range opts.Interpreters {
		interpreters[name] = true
	}
	return &Stager{
		fs:           fs,
		paths:        paths,
		logger:       logger,
		withoutKegs:  opts.WithoutKegs,
		interpreters: interpreters,
	}
}

// PlanPackage adds the tree and auxiliary operations for r to plan.
func (s *Stager) PlanPackage(plan *Plan, r formula.Record) error {
	s.logger.Info("Staging formula", "formula", r.Name, "version", r.EffectiveVersion())
	plan.Packages = append(plan.Packages, r.Name)

	if err := s.PlanTree(plan, r); err != nil {
		return fmt.Errorf("failed to stage %s: %w", r.Name, err)
	}
	if err := s.PlanAuxiliary(plan, r); err != nil {
		return fmt.Errorf("failed to stage %s: %w", r.Name, err)
	}
	return nil
}

// PlanTree stages the whitelisted keg directories and the keg itself.
//
// For every entry of a whitelisted keg directory the same-named entry in the
// prefix decides what happens: a directory (symlinks followed) is recreated
// empty, a symlink is copied as a symlink, anything else is left out. Regular
// files only reach the package through the keg copy.
func (s *Stager) PlanTree(plan *Plan, r formula.Record) error {
	keg := r.InstalledPath
	if keg == "" || !s.fs.IsDir(keg) {
		s.logger.Debug("Keg not found, skipping", "formula", r.Name, "keg", keg)
		return nil
	}

	entries, err := s.fs.ReadDir(keg)
	if err != nil {
		return fmt.Errorf("failed to read keg: %w", err)
	}

	for _, entry := range entries {
		dir := entry.Name()
		if !s.fs.IsDir(filepath.Join(keg, dir)) {
			continue
		}
		if !IsStageableDir(dir) {
			s.logger.Debug("Ignoring keg directory", "formula", r.Name, "dir", dir)
			continue
		}

		s.logger.Debug("Staging keg directory", "formula", r.Name, "dir", dir)
		children, err := s.fs.ReadDir(filepath.Join(keg, dir))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}

		for _, child := range children {
			prefixPath := filepath.Join(s.paths.Prefix, dir, child.Name())
			dest := plan.Dest(dir, child.Name())

			switch {
			case s.fs.IsDir(prefixPath):
				plan.mkdir(r.Name, dest)
			case s.fs.IsSymlink(prefixPath):
				plan.copy(r.Name, prefixPath, dest)
			default:
				s.logger.Debug("Not linked into prefix, leaving to keg copy", "path", prefixPath)
			}
		}
	}

	if s.withoutKegs {
		return nil
	}

	s.logger.Info("Staging keg", "path", keg)
	plan.mkdir(r.Name, plan.Dest("Cellar", r.Name))
	plan.copy(r.Name, keg, plan.Dest("Cellar", r.Name, filepath.Base(keg)))
	return nil
}

// PlanAuxiliary stages the maintenance symlinks, interpreter site directory
// and service descriptor of r. Each part is skipped when its source is absent.
func (s *Stager) PlanAuxiliary(plan *Plan, r formula.Record) error {
	base := r.BaseName()

	if r.LinkedPath != "" && s.exists(r.LinkedPath) {
		destDir := plan.Dest("var", config.ManagerName, "linked")
		plan.mkdir(r.Name, destDir)
		if err := s.planMatches(plan, r.Name, s.paths.LinkedKegs, base, destDir); err != nil {
			return fmt.Errorf("failed to stage linked kegs: %w", err)
		}
	}

	if s.interpreters[base] {
		siteDir := base + r.Qualifier()
		src := filepath.Join(s.paths.Prefix, "lib", siteDir)
		if s.exists(src) {
			s.logger.Info("Staging interpreter site directory", "path", src)
			plan.copy(r.Name, src, plan.Dest("lib", siteDir))
		} else {
			s.logger.Debug("Interpreter site directory not found, skipping", "path", src)
		}
	}

	if r.OptPath != "" && s.exists(r.OptPath) {
		destDir := plan.Dest("opt")
		plan.mkdir(r.Name, destDir)
		if err := s.planMatches(plan, r.Name, s.paths.Opt, base, destDir); err != nil {
			return fmt.Errorf("failed to stage opt links: %w", err)
		}
	}

	if r.Service != nil {
		if err := s.fs.ValidateIdentifier(r.Service.Name); err != nil {
			return fmt.Errorf("invalid service name %q: %w", r.Service.Name, err)
		}
		dest := plan.Dest("Library", "LaunchDaemons", r.Service.Name+".plist")
		s.logger.Info("Plist found, staging launch daemon", "name", r.Service.Name)
		plan.write(r.Name, dest, r.Service.Content)
	}

	return nil
}

// planMatches copies every entry of dir whose name contains base into destDir.
// The substring match is deliberately broad: it also picks up links of other
// versions of the formula (python@3.11 pulls in python@3.12).
func (s *Stager) planMatches(plan *Plan, formulaName, dir, base, destDir string) error {
	matches, err := s.fs.Glob(dir, "*"+glob.QuoteMeta(base)+"*")
	if err != nil {
		return err
	}
	for _, match := range matches {
		plan.copy(formulaName, match, filepath.Join(destDir, filepath.Base(match)))
	}
	return nil
}

// exists follows symlinks, so a dangling link counts as absent.
func (s *Stager) exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}
