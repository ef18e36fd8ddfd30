package dynamic

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// BrowserOptions configures how Chrome is launched
type BrowserOptions struct {
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
}

// chromeBinaries are looked up on PATH after the install locations.
var chromeBinaries = []string{
	"google-chrome-stable", "google-chrome", "chromium", "chromium-browser", "chrome", "msedge",
}

// installDirs lists well-known Chrome locations per GOOS. Entries starting
// with "~/" are relative to the home directory, "%VAR%/" to an env var.
var installDirs = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		"~/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	},
	"windows": {
		"%ProgramFiles%/Google/Chrome/Application/chrome.exe",
		"%ProgramFiles(x86)%/Google/Chrome/Application/chrome.exe",
		"%LocalAppData%/Google/Chrome/Application/chrome.exe",
		"%ProgramFiles(x86)%/Microsoft/Edge/Application/msedge.exe",
	},
	"linux": {
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		"~/.local/share/flatpak/exports/bin/org.chromium.Chromium",
	},
}

// FindChrome returns the Chrome executable to render with, or "" when none
// is installed. explicit wins over CRAWLMD_CHROME_PATH and CHROME_PATH, which
// win over install locations and PATH.
func FindChrome(explicit string) string {
	for _, p := range []string{explicit, os.Getenv("CRAWLMD_CHROME_PATH"), os.Getenv("CHROME_PATH")} {
		if p == "" {
			continue
		}
		if executable(p) {
			return p
		}
		log.Warn().Str("path", p).Msg("Configured Chrome path is not executable, searching")
	}

	for _, p := range installDirs[runtime.GOOS] {
		if p = expandInstallPath(p); p != "" && executable(p) {
			log.Debug().Str("path", p).Msg("Chrome found")
			return p
		}
	}
	for _, name := range chromeBinaries {
		if p, err := exec.LookPath(name); err == nil {
			log.Debug().Str("path", p).Msg("Chrome found on PATH")
			return p
		}
	}

	log.Debug().Str("os", runtime.GOOS).Msg("No Chrome installation found")
	return ""
}

func expandInstallPath(p string) string {
	switch {
	case len(p) > 2 && p[:2] == "~/":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, p[2:])
	case len(p) > 0 && p[0] == '%':
		end := 1
		for end < len(p) && p[end] != '%' {
			end++
		}
		if end >= len(p) {
			return ""
		}
		dir := os.Getenv(p[1:end])
		if dir == "" {
			return ""
		}
		return filepath.Join(dir, filepath.FromSlash(p[end+1:]))
	}
	return p
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode()&0o111 != 0
}

// allocatorOptions builds the exec allocator flags shared by the pool and
// one-off browsers.
func allocatorOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(1920, 1080),
	)

	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	return allocOpts
}
