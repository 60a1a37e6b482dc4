package browser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// ErrUnreadableRoot is returned when a browser's profile root exists
// but cannot be enumerated (typically a permission problem). A missing
// root is not an error; the browser is simply not installed.
var ErrUnreadableRoot = errors.New("profile root unreadable")

// Profile is one discovered (profile, history store) pair.
type Profile struct {
	ID        string // profile directory name, e.g. "Default", "Profile 2"
	StorePath string // absolute path to the history database
}

// Locator discovers history store paths for installed browsers. The
// root maps are resolved once at construction; tests point them at
// fixture directories.
type Locator struct {
	// ChromiumRoots maps a Chromium-family browser to the directory
	// that contains its profile directories ("User Data" on Windows).
	ChromiumRoots map[Browser]string
	// FirefoxRoot is the directory containing Firefox profile dirs.
	FirefoxRoot string
}

// NewLocator builds a Locator with the well-known per-OS roots.
func NewLocator() *Locator {
	switch runtime.GOOS {
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		roaming := os.Getenv("APPDATA")
		return &Locator{
			ChromiumRoots: map[Browser]string{
				Chrome: filepath.Join(local, "Google", "Chrome", "User Data"),
				Edge:   filepath.Join(local, "Microsoft", "Edge", "User Data"),
				Brave:  filepath.Join(local, "BraveSoftware", "Brave-Browser", "User Data"),
			},
			FirefoxRoot: filepath.Join(roaming, "Mozilla", "Firefox", "Profiles"),
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		appSupport := filepath.Join(home, "Library", "Application Support")
		return &Locator{
			ChromiumRoots: map[Browser]string{
				Chrome: filepath.Join(appSupport, "Google", "Chrome"),
				Edge:   filepath.Join(appSupport, "Microsoft Edge"),
				Brave:  filepath.Join(appSupport, "BraveSoftware", "Brave-Browser"),
			},
			FirefoxRoot: filepath.Join(appSupport, "Firefox", "Profiles"),
		}
	default:
		home, _ := os.UserHomeDir()
		cfg := filepath.Join(home, ".config")
		return &Locator{
			ChromiumRoots: map[Browser]string{
				Chrome: filepath.Join(cfg, "google-chrome"),
				Edge:   filepath.Join(cfg, "microsoft-edge"),
				Brave:  filepath.Join(cfg, "BraveSoftware", "Brave-Browser"),
			},
			FirefoxRoot: filepath.Join(home, ".mozilla", "firefox"),
		}
	}
}

// Locate returns every (profile, store) pair for b, sorted by profile
// ID. A browser that is not installed yields an empty slice and no
// error.
func (l *Locator) Locate(b Browser) ([]Profile, error) {
	switch b.Family() {
	case Chromium:
		return l.locateChromium(b)
	case Mozilla:
		return l.locateFirefox()
	default:
		return nil, fmt.Errorf("locate %q: %w", b, ErrUnsupportedFamily)
	}
}

// locateChromium enumerates "Default" and "Profile N" directories that
// contain a History database.
func (l *Locator) locateChromium(b Browser) ([]Profile, error) {
	root := l.ChromiumRoots[b]
	entries, err := readRoot(root)
	if entries == nil || err != nil {
		return nil, err
	}

	var profiles []Profile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name != "Default" && !strings.HasPrefix(name, "Profile ") {
			continue
		}
		store := filepath.Join(root, name, "History")
		if _, err := os.Stat(store); err != nil {
			continue
		}
		profiles = append(profiles, Profile{ID: name, StorePath: store})
	}

	sortProfiles(profiles)
	return profiles, nil
}

// locateFirefox scans the profiles root for directories holding a
// places.sqlite database.
func (l *Locator) locateFirefox() ([]Profile, error) {
	entries, err := readRoot(l.FirefoxRoot)
	if entries == nil || err != nil {
		return nil, err
	}

	var profiles []Profile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		store := filepath.Join(l.FirefoxRoot, e.Name(), "places.sqlite")
		if _, err := os.Stat(store); err != nil {
			continue
		}
		profiles = append(profiles, Profile{ID: e.Name(), StorePath: store})
	}

	sortProfiles(profiles)
	return profiles, nil
}

// readRoot enumerates a profile root. A missing root returns (nil, nil);
// any other failure wraps ErrUnreadableRoot.
func readRoot(root string) ([]os.DirEntry, error) {
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableRoot, root, err)
	}
	return entries, nil
}

func sortProfiles(profiles []Profile) {
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
}
