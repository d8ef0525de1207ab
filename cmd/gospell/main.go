package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
	"github.com/spf13/viper"
	"github.com/vpetlovyi/gohunspell"
)

type dictConfig struct {
	Key string `mapstructure:"key"`
	Dic string `mapstructure:"dic"`
	Aff string `mapstructure:"aff"`
}

func main() {
	pattern := flag.String("pattern", "", "glob of files to spell-check instead of reading words")
	flag.Parse()

	v := viperConfig()
	ctx := context.Background()
	sess := gohunspell.NewSession(gohunspell.SessionConfig{Verbose: v.GetBool("verbose")})
	defer sess.Close(ctx)

	var dicts []dictConfig
	if err := v.UnmarshalKey("dictionaries", &dicts); err != nil {
		log.Fatalf("invalid dictionaries config: %v", err)
	}
	if len(dicts) == 0 {
		log.Fatal("no dictionaries configured, set dictionaries in gospell.yaml or GOSPELL_DICTIONARIES")
	}

	for _, d := range dicts {
		if err := sess.LoadDictionary(ctx, d.Key, gohunspell.FileSource{Dic: d.Dic, Aff: d.Aff}); err != nil {
			log.Fatalf("loading dictionary %q: %v", d.Key, err)
		}
	}

	locale := v.GetString("locale")
	if locale == "" {
		locale = dicts[0].Key
	}
	if err := sess.SwitchDictionary(locale, v.GetBool("check_all")); err != nil {
		log.Fatalf("selecting dictionary %q: %v", locale, err)
	}

	switch {
	case *pattern != "":
		if err := checkFiles(ctx, sess, *pattern); err != nil {
			log.Fatal(err)
		}
	case flag.NArg() > 0:
		checkWords(ctx, sess, flag.Args())
	default:
		checkWords(ctx, sess, readLines(os.Stdin))
	}
}

func viperConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("check_all", false)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("GOSPELL")
	v.AutomaticEnv()

	v.SetConfigName("gospell")
	v.AddConfigPath(".")
	if home, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, "gospell"))
	}
	if err := v.ReadInConfig(); err != nil {
		log.Printf("no config file found, using defaults, %v", err)
	}
	return v
}

func checkWords(ctx context.Context, sess *gohunspell.Session, words []string) {
	for _, word := range words {
		ok, err := sess.CheckWord(ctx, word)
		if err != nil {
			log.Fatalf("checking %q: %v", word, err)
		}
		if ok {
			fmt.Printf("%s: ok\n", word)
			continue
		}
		fmt.Printf("%s: misspelled, suggestions: %s\n", word, strings.Join(sess.Suggest(ctx, word), ", "))
	}
}

// checkFiles spell-checks every file under the working directory matching pattern, reporting
// each unknown word once per file.
func checkFiles(ctx context.Context, sess *gohunspell.Session, pattern string) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !g.Match(path) {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		seen := make(map[string]bool)
		scanner := bufio.NewScanner(f)
		for line := 1; scanner.Scan(); line++ {
			for _, word := range splitWords(scanner.Text()) {
				if seen[word] {
					continue
				}
				seen[word] = true
				ok, err := sess.CheckWord(ctx, word)
				if err != nil {
					return fmt.Errorf("checking %q: %w", word, err)
				}
				if !ok {
					fmt.Printf("%s:%d: %s -> %s\n", path, line, word, strings.Join(sess.Suggest(ctx, word), ", "))
				}
			}
		}
		return scanner.Err()
	})
}

func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func readLines(f *os.File) []string {
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if word := strings.TrimSpace(scanner.Text()); word != "" {
			lines = append(lines, word)
		}
	}
	return lines
}
