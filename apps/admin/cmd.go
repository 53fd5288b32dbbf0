package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/jkarani/shulepay/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  addaccount -email EMAIL -name NAME -school SCHOOL [-role ROLE] - add or update an account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAccountCmd := flag.NewFlagSet("addaccount", flag.ExitOnError)
	addAccountEmail := addAccountCmd.String("email", "", "The account's email. The password will be prompted next.")
	addAccountName := addAccountCmd.String("name", "", "The account holder's full name.")
	addAccountSchool := addAccountCmd.String("school", "", "The school name.")
	addAccountRole := addAccountCmd.String("role", user.RoleAdmin, "One of: admin, director, accountant.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "addaccount":
		if err := addAccountCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAccountEmail == "" || *addAccountName == "" || *addAccountSchool == "" {
			addAccountCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addAccountCmd.Usage()
			return errHelp
		}
		return cli.addAccount(*addAccountEmail, *addAccountName, *addAccountSchool, *addAccountRole, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
