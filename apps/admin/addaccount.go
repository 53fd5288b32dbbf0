package main

import (
	"fmt"
	"time"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/user"
)

// addAccount updates or creates a user.User
func (cli *commandLine) addAccount(email, name, school, role, pwd string) error {
	email = core.CleanString(email, true /* lower */)

	valid := false
	for _, r := range user.AllRoles {
		if role == r {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown role %q", role)
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByEmail(email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Email:     email,
			CreatedAt: now,
		}
	}
	usr.Name = core.CleanString(name)
	usr.SchoolName = core.CleanString(school)
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(usr)
	}
	return err
}
