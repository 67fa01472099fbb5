// Command szdt is the thin CLI wrapper around the archive format:
// "archive <DIR> --sign <NICKNAME>" and "unarchive <FILE> [--dir
// <DIR>]", plus key and nickname management backed by the contact
// store (spec.md §6). None of this logic is part of the archive
// format itself.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/szdt/szdt/internal/archive"
	"github.com/szdt/szdt/internal/cborcodec"
	"github.com/szdt/szdt/internal/contact"
	"github.com/szdt/szdt/internal/keymaterial"
	"github.com/szdt/szdt/internal/mnemonic"
	"github.com/szdt/szdt/internal/nickname"
	"github.com/szdt/szdt/internal/szdthash"
	"github.com/szdt/szdt/internal/szlog"
	"github.com/szdt/szdt/internal/walker"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	runID := uuid.New().String()
	log := szlog.Default().WithRun(runID).WithComponent(args[0])

	var err error
	switch args[0] {
	case "archive":
		err = cmdArchive(args[1:])
	case "unarchive":
		err = cmdUnarchive(args[1:])
	case "key":
		err = cmdKey(args[1:])
	case "nickname":
		err = cmdNickname(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "szdt: unknown command %q\n", args[0])
		printUsage()
		return 1
	}

	if err != nil {
		log.Error("command failed", "err", err)
		fmt.Fprintf(os.Stderr, "szdt: %v\n", err)
		return 1
	}
	log.Info("command succeeded")
	return 0
}

func printUsage() {
	fmt.Println("szdt: censorship-resistant archive codec")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  szdt archive <DIR> --sign <NICKNAME> [-o FILE] [--contacts FILE]")
	fmt.Println("  szdt unarchive <FILE> [--dir DIR] [--on-invalid halt|skip] [--contacts FILE]")
	fmt.Println("  szdt key generate --nickname NAME [--contacts FILE]")
	fmt.Println("  szdt key export --nickname NAME [--contacts FILE]")
	fmt.Println("  szdt key import --nickname NAME [--contacts FILE]")
	fmt.Println("  szdt key show --nickname NAME [--contacts FILE]")
	fmt.Println("  szdt nickname check NAME [--contacts FILE]")
}

func defaultContactsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "szdt-contacts.cbor"
	}
	return filepath.Join(home, ".szdt", "contacts.cbor")
}

func openContacts(path string) (*contact.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open contact store dir: %w", err)
	}
	return contact.Open(path)
}

func cmdArchive(args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	sign := fs.String("sign", "", "nickname of the signing key (required)")
	out := fs.String("o", "", "output file (default: <DIR>.szdt)")
	contactsPath := fs.String("contacts", defaultContactsPath(), "contact store path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("archive: expected exactly one DIR argument")
	}
	// Flags may also follow DIR, as in "archive DIR --sign NAME".
	dir := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return errors.New("archive: expected exactly one DIR argument")
	}
	if *sign == "" {
		return errors.New("archive: --sign NICKNAME is required")
	}
	outPath := *out
	if outPath == "" {
		outPath = filepath.Clean(dir) + ".szdt"
	}

	store, err := openContacts(*contactsPath)
	if err != nil {
		return err
	}
	key, err := store.Lookup(*sign)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer f.Close()

	receipts, err := archive.Write(f, dir, key, archive.WriteOptions{
		Walk:     walker.Walk,
		Nickname: *sign,
	})
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	for _, r := range receipts {
		fmt.Printf("%s  %s\n", r.Memo.Protected.Src, r.Memo.Protected.Path)
	}
	return nil
}

func cmdUnarchive(args []string) error {
	fs := flag.NewFlagSet("unarchive", flag.ExitOnError)
	dir := fs.String("dir", ".", "directory to extract into")
	onInvalid := fs.String("on-invalid", "halt", "halt or skip entries that fail validation")
	contactsPath := fs.String("contacts", defaultContactsPath(), "contact store path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("unarchive: expected exactly one FILE argument")
	}
	// Flags may also follow FILE, as in "unarchive FILE --dir DIR".
	archivePath := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return errors.New("unarchive: expected exactly one FILE argument")
	}
	if *onInvalid != "halt" && *onInvalid != "skip" {
		return fmt.Errorf("unarchive: --on-invalid must be halt or skip, got %q", *onInvalid)
	}

	store, err := openContacts(*contactsPath)
	if err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("unarchive: %w", err)
	}
	defer f.Close()

	r := archive.NewReader(f)
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("unarchive: %w", err)
		}

		if verr := validateEntry(entry); verr != nil {
			if *onInvalid == "halt" {
				return fmt.Errorf("unarchive: %w", verr)
			}
			fmt.Fprintf(os.Stderr, "szdt: skipping invalid entry %s: %v\n", entry.Memo.Protected.Path, verr)
			continue
		}

		if err := archive.ExtractEntry(*dir, entry); err != nil {
			return fmt.Errorf("unarchive: %w", err)
		}

		name, _ := store.NicknameFor(entry.Memo.Protected.Iss)
		if name != "" {
			fmt.Printf("%s  %s  (%s)\n", entry.Memo.Protected.Src, entry.Memo.Protected.Path, name)
		} else {
			fmt.Printf("%s  %s\n", entry.Memo.Protected.Src, entry.Memo.Protected.Path)
		}
	}
	return nil
}

func validateEntry(e archive.Entry) error {
	// Src is the hash of the body's canonical byte-string encoding.
	encoded, err := cborcodec.Encode(cborcodec.Bytes(e.Body))
	if err != nil {
		return err
	}
	hash := szdthash.Sum(encoded)
	if err := e.Memo.Checksum(hash); err != nil {
		return err
	}
	return e.Memo.Verify()
}

func cmdKey(args []string) error {
	if len(args) == 0 {
		return errors.New("key: expected a subcommand (generate, export, import, show)")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("key "+sub, flag.ExitOnError)
	name := fs.String("nickname", "", "nickname for this key (required)")
	contactsPath := fs.String("contacts", defaultContactsPath(), "contact store path")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("key: --nickname NAME is required")
	}

	store, err := openContacts(*contactsPath)
	if err != nil {
		return err
	}

	switch sub {
	case "generate":
		nick, err := nickname.Unique(*name, store.IsTaken)
		if err != nil {
			return fmt.Errorf("key generate: %w", err)
		}
		key, err := keymaterial.Generate()
		if err != nil {
			return fmt.Errorf("key generate: %w", err)
		}
		store.Put(nick, key)
		if err := store.Save(); err != nil {
			return fmt.Errorf("key generate: %w", err)
		}
		fmt.Printf("%s  %s\n", nick, key.Identifier())
		return nil

	case "export":
		key, err := store.Lookup(*name)
		if err != nil {
			return fmt.Errorf("key export: %w", err)
		}
		phrase, err := key.ToMnemonic()
		if err != nil {
			return fmt.Errorf("key export: %w", err)
		}
		fmt.Println(phrase.String())
		return nil

	case "import":
		fmt.Print("mnemonic phrase: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("key import: %w", err)
		}
		phrase, err := mnemonic.Parse(line)
		if err != nil {
			return fmt.Errorf("key import: %w", err)
		}
		key, err := keymaterial.FromMnemonic(phrase)
		if err != nil {
			return fmt.Errorf("key import: %w", err)
		}
		nick, err := nickname.Parse(*name)
		if err != nil {
			return fmt.Errorf("key import: %w", err)
		}
		store.Put(nick, key)
		if err := store.Save(); err != nil {
			return fmt.Errorf("key import: %w", err)
		}
		fmt.Printf("%s  %s\n", nick, key.Identifier())
		return nil

	case "show":
		key, err := store.Lookup(*name)
		if err != nil {
			return fmt.Errorf("key show: %w", err)
		}
		fmt.Println(key.Identifier())
		return nil

	default:
		return fmt.Errorf("key: unknown subcommand %q", sub)
	}
}

func cmdNickname(args []string) error {
	if len(args) < 2 || args[0] != "check" {
		return errors.New("nickname: usage is \"nickname check NAME\"")
	}
	fs := flag.NewFlagSet("nickname check", flag.ExitOnError)
	contactsPath := fs.String("contacts", defaultContactsPath(), "contact store path")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	store, err := openContacts(*contactsPath)
	if err != nil {
		return err
	}
	nick, err := nickname.Unique(args[1], store.IsTaken)
	if err != nil {
		return fmt.Errorf("nickname check: %w", err)
	}
	fmt.Println(nick)
	return nil
}
