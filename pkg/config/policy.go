package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/apidockhq/apidock/pkg/observability"
	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// Policy is the operator-editable reputation policy file. Any section
// left empty falls back to the built-in defaults.
type Policy struct {
	// Points maps action names to point values
	Points map[string]int64 `yaml:"points"`
	// Thresholds lists tier score floors in ascending order
	Thresholds []ThresholdEntry `yaml:"thresholds"`
	// Quotas maps tier names to edit quotas
	Quotas map[string]QuotaEntry `yaml:"quotas"`
}

// ThresholdEntry is one tier score floor in the policy file
type ThresholdEntry struct {
	Tier     string `yaml:"tier"`
	MinScore int64  `yaml:"min_score"`
}

// QuotaEntry is one tier edit quota in the policy file.
// MaxChars of -1 means unlimited.
type QuotaEntry struct {
	MaxChars    int64   `yaml:"max_chars"`
	MaxFraction float64 `yaml:"max_fraction"`
}

// LoadPolicy reads and parses a policy file
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	return &policy, nil
}

// PointValues converts the points section to the ledger's action table,
// or the built-in defaults when the section is empty
func (p *Policy) PointValues() map[reputation.ActionType]int64 {
	if len(p.Points) == 0 {
		return reputation.DefaultPointValues()
	}
	points := make(map[reputation.ActionType]int64, len(p.Points))
	for action, value := range p.Points {
		points[reputation.ActionType(action)] = value
	}
	return points
}

// TierThresholds converts the thresholds section to calculator input,
// or the built-in defaults when the section is empty
func (p *Policy) TierThresholds() []reputation.Threshold {
	if len(p.Thresholds) == 0 {
		return reputation.DefaultThresholds()
	}
	thresholds := make([]reputation.Threshold, 0, len(p.Thresholds))
	for _, entry := range p.Thresholds {
		thresholds = append(thresholds, reputation.Threshold{
			Tier:     reputation.Tier(entry.Tier),
			MinScore: entry.MinScore,
		})
	}
	return thresholds
}

// QuotaTable converts the quotas section to the wiki policy's quota
// table, or the built-in defaults when the section is empty
func (p *Policy) QuotaTable() map[reputation.Tier]wiki.EditQuota {
	if len(p.Quotas) == 0 {
		return wiki.DefaultQuotas()
	}
	quotas := make(map[reputation.Tier]wiki.EditQuota, len(p.Quotas))
	for tier, entry := range p.Quotas {
		maxChars := entry.MaxChars
		if maxChars < 0 {
			maxChars = wiki.UnlimitedChars
		}
		quotas[reputation.Tier(tier)] = wiki.EditQuota{
			MaxChars:    maxChars,
			MaxFraction: entry.MaxFraction,
		}
	}
	return quotas
}

// PolicyWatcher reloads the policy file when it changes on disk
type PolicyWatcher struct {
	path     string
	logger   *observability.Logger
	onChange func(*Policy)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewPolicyWatcher creates a watcher for a policy file. onChange is
// called with each successfully parsed new version; parse failures are
// logged and the previous policy stays in effect.
func NewPolicyWatcher(path string, logger *observability.Logger, onChange func(*Policy)) (*PolicyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory: editors and config maps replace the file
	// rather than writing it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch policy directory: %w", err)
	}

	return &PolicyWatcher{
		path:     path,
		logger:   logger,
		onChange: onChange,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for policy file changes
func (w *PolicyWatcher) Start() {
	go w.run()
}

// Stop stops the watcher
func (w *PolicyWatcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *PolicyWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Policy file watcher error")
		}
	}
}

func (w *PolicyWatcher) reload() {
	policy, err := LoadPolicy(w.path)
	if err != nil {
		w.logger.WithError(err).WithField("path", w.path).Warn("Failed to reload policy file, keeping previous policy")
		return
	}
	w.logger.WithField("path", w.path).Info("Reloaded policy file")
	w.onChange(policy)
}
