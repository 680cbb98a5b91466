package buildinfo

// Ces variables sont typiquement injectées à la compilation via -ldflags.
// Exemple :
//
//	-X github.com/Guilhem-Bonnet/bookclub/internal/buildinfo.Version=v0.3.0
//	-X github.com/Guilhem-Bonnet/bookclub/internal/buildinfo.Commit=abcdef
//	-X github.com/Guilhem-Bonnet/bookclub/internal/buildinfo.Date=2026-10-19
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String renvoie la version affichée par `bookclub --version`.
func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s += " (" + i.Commit + ")"
	}
	if i.Date != "" {
		s += " " + i.Date
	}
	return s
}
