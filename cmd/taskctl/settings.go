package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"famtasks/internal/client"
	"famtasks/internal/taskstore"
)

// settings resolve from flags, then TASKCTL_* variables, then
// ~/.config/taskctl.yaml.
type settings struct {
	v *viper.Viper
}

func newSettings() *settings {
	v := viper.New()
	v.SetEnvPrefix("TASKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("api", "http://localhost:8080")
	return &settings{v: v}
}

func (s *settings) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("api", "http://localhost:8080", "API base URL")
	flags.String("token", "", "Bearer token")
	flags.String("email", "", "Login email, used when no token is set")
	flags.String("password", "", "Login password")
	flags.String("config", "", "Config file (default ~/.config/taskctl.yaml)")
	flags.BoolP("verbose", "v", false, "Debug logging")
}

func (s *settings) load(cmd *cobra.Command) error {
	if err := s.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if path := s.v.GetString("config"); path != "" {
		s.v.SetConfigFile(path)
	} else {
		s.v.SetConfigName("taskctl")
		s.v.SetConfigType("yaml")
		s.v.AddConfigPath("$HOME/.config")
	}
	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if s.v.GetBool("verbose") {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	return nil
}

// session is an authenticated client with the household's tasks loaded.
type session struct {
	client *client.Client
	store  *taskstore.Store
}

func (s *settings) open(ctx context.Context) (*session, error) {
	cl := client.New(s.v.GetString("api"), s.v.GetString("token"), nil)

	if cl.Token() == "" {
		email := s.v.GetString("email")
		if email == "" {
			return nil, errors.New("no credentials: set --token or --email/--password")
		}
		if _, err := cl.Login(ctx, email, s.v.GetString("password")); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	me, err := cl.Me(ctx)
	if err != nil {
		return nil, err
	}
	if me.Unassigned() {
		return nil, errors.New("profile is not a member of a household yet")
	}

	store := taskstore.New(cl, cl)
	if err := store.Load(ctx, *me.HouseholdID); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	log.WithField("household_id", *me.HouseholdID).Debug("tasks loaded")
	return &session{client: cl, store: store}, nil
}
