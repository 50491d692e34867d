package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/miu/unidesk/internal/app/services"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	voters   services.VoterService
	students services.StudentService
	// migrate and pending are nil for the memory driver
	migrate func(ctx context.Context) error
	pending func(ctx context.Context) ([]string, error)
	seed    func(ctx context.Context) error
	out     io.Writer
}

func (cli *commandLine) stdout() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) printUsage() {
	w := cli.stdout()
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  migrate [-list]                                   - apply pending migrations")
	fmt.Fprintln(w, "  seed                                              - create default faculties, positions and staff")
	fmt.Fprintln(w, "  createstaff -regno REGNO -email EMAIL -name NAME  - create or promote a staff account, the password is prompted next")
	fmt.Fprintln(w, "  resetpassword -regno REGNO [-student]             - mail a newly generated password")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	migrateCmd := flag.NewFlagSet("migrate", flag.ContinueOnError)
	migrateList := migrateCmd.Bool("list", false, "Only list the migration files.")

	createStaffCmd := flag.NewFlagSet("createstaff", flag.ContinueOnError)
	createStaffRegNo := createStaffCmd.String("regno", "", "The staff member's registration number, used to log in.")
	createStaffEmail := createStaffCmd.String("email", "", "The staff member's email.")
	createStaffName := createStaffCmd.String("name", "", "The staff member's full name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordRegNo := resetPasswordCmd.String("regno", "", "The registration number of the account.")
	resetPasswordStudent := resetPasswordCmd.Bool("student", false, "Reset a research student instead of a voter.")

	for _, fs := range []*flag.FlagSet{migrateCmd, createStaffCmd, resetPasswordCmd} {
		fs.SetOutput(cli.stdout())
	}

	switch args[1] {
	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.runMigrate(ctx, *migrateList)

	case "seed":
		return cli.seed(ctx)

	case "createstaff":
		if err := createStaffCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *createStaffRegNo == "" {
			createStaffCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createStaffCmd.Usage()
			return errHelp
		}
		voter, err := cli.voters.CreateStaff(ctx, *createStaffName, *createStaffEmail, *createStaffRegNo, pwd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.stdout(), "Staff account %s ready.\n", voter.RegNo)
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordRegNo == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		if *resetPasswordStudent {
			return cli.students.ResetPassword(ctx, *resetPasswordRegNo)
		}
		return cli.voters.ResetPassword(ctx, *resetPasswordRegNo)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) runMigrate(ctx context.Context, list bool) error {
	if cli.migrate == nil {
		fmt.Fprintln(cli.stdout(), "The memory driver has no schema to migrate.")
		return nil
	}
	if list {
		files, err := cli.pending(ctx)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cli.stdout(), f)
		}
		return nil
	}
	return cli.migrate(ctx)
}

func (cli *commandLine) readPassword() (string, error) {
	fmt.Fprint(cli.stdout(), "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.stdout())
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
