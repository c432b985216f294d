package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// allowedSchemes restricts what a repository URL may use. Anything else is
// rejected before any shell text is generated.
var allowedSchemes = map[string]bool{
	"https": true,
	"http":  true,
	"git":   true,
	"ssh":   true,
}

const (
	workspaceRoot = "/workspace"
	sourceDir     = workspaceRoot + "/src"
	markerDir     = workspaceRoot + "/.workbench"
	provisionedAt = markerDir + "/provisioned"
)

// Token derives the per-workspace server token from the uid. The derivation
// is deterministic so a pod rebuilt from identical inputs carries the same
// token.
func Token(uid string) string {
	sum := sha256.Sum256([]byte(uid))
	return hex.EncodeToString(sum[:])
}

// shellQuote returns s as a single POSIX shell word. Single quotes inside s
// are closed, escaped and reopened, so no interpolated value can break out
// of its quoting.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// validateRepoURL rejects repository URLs outside the scheme allow-list.
func validateRepoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid repository URL %q: %w", raw, err)
	}
	if !allowedSchemes[u.Scheme] {
		return fmt.Errorf("repository URL scheme %q is not allowed", u.Scheme)
	}
	return nil
}

// cloneScript is the init container's script. The .git guard makes it a
// no-op when the volume already holds a clone, so pod restarts never
// re-clone.
func cloneScript(repoURL string) string {
	var b strings.Builder
	b.WriteString("set -e\n")
	b.WriteString("if [ ! -d " + sourceDir + "/.git ]; then\n")
	b.WriteString("  git clone " + shellQuote(repoURL) + " " + sourceDir + "\n")
	b.WriteString("fi\n")
	return b.String()
}

// bootScript is the main container's entrypoint. Feature installation and
// the provisioning command run once, guarded by a marker file on the
// durable volume; every boot ends by exec'ing the workspace server bound to
// the uid-derived token.
func bootScript(cfg SpecConfig) string {
	var b strings.Builder
	b.WriteString("set -e\n")
	b.WriteString("mkdir -p " + markerDir + "\n")
	b.WriteString("if [ ! -f " + provisionedAt + " ]; then\n")
	for _, feature := range cfg.Features {
		b.WriteString("  workbench-feature install " + shellQuote(feature) + "\n")
	}
	if cfg.ProvisionCommand != "" {
		b.WriteString("  (cd " + sourceDir + " && /bin/sh -c " + shellQuote(cfg.ProvisionCommand) + ")\n")
	}
	b.WriteString("  touch " + provisionedAt + "\n")
	b.WriteString("fi\n")
	b.WriteString("exec workbench-server --root " + sourceDir +
		" --port " + fmt.Sprint(serverPort) +
		" --token " + shellQuote(Token(cfg.UID)) + "\n")
	return b.String()
}
