// kioskctl provisions the kiosk out of band: it creates admin users and
// seeds demo content. Account creation is deliberately not part of the
// running app's surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/PatrickAmbrosso/kiosk/core"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "adduser":
		addUser(os.Args[2:])
	case "seed":
		seed(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kioskctl <adduser|seed> [flags]")
}

func openDB(file, migrations string) *core.SQLiteDB {
	db, err := core.NewSQLiteDB(file, migrations, &core.SQLiteDBOption{
		Mode:        "rwc",
		JournalMode: "WAL",
	})
	if err != nil {
		fatal("open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		fatal("migrate database: %v", err)
	}
	return db
}

func addUser(args []string) {
	fs := flag.NewFlagSet("adduser", flag.ExitOnError)
	file := fs.String("db", "./kiosk.db", "path to the SQLite database file")
	migrations := fs.String("migrations", "./migrations", "path to the migrations directory")
	username := fs.String("username", "", "username of the new user")
	password := fs.String("password", "", "password of the new user")
	fs.Parse(args)

	if *username == "" || *password == "" {
		fatal("adduser: -username and -password are required")
	}

	db := openDB(*file, *migrations)
	defer db.Close()

	users := core.NewSQLiteUserStore(db.DB)
	err := users.CreateUser(context.Background(), core.User{
		Username: *username,
		Password: *password,
	})
	if err != nil {
		if errors.Is(err, core.ErrConflictedUser) {
			fatal("adduser: user %q already exists", *username)
		}
		fatal("adduser: %v", err)
	}

	fmt.Printf("created user %q\n", *username)
}

func seed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("db", "./kiosk.db", "path to the SQLite database file")
	migrations := fs.String("migrations", "./migrations", "path to the migrations directory")
	fs.Parse(args)

	db := openDB(*file, *migrations)
	defer db.Close()

	nodes := core.NewSQLiteNodeStore(db.DB)
	demo := []struct {
		name    string
		content string
	}{
		{"Welcome", "Welcome to the kiosk."},
		{"Opening Hours", "Mon-Fri 09:00-17:00"},
		{"Announcements", "No announcements yet."},
	}

	for _, n := range demo {
		id, err := nodes.CreateNode(context.Background(), n.name, n.content)
		if err != nil {
			fatal("seed: %v", err)
		}
		fmt.Printf("created node %d: %s\n", id, n.name)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
