// AngelaMos | 2026
// commands.go

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/useSafe/File-Allocation-System-2.0/internal/auth"
	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
	"github.com/useSafe/File-Allocation-System-2.0/internal/user"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()

		applied, err := core.Migrate(cmd.Context(), s.db.DB)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			slog.Info("schema is up to date")
			return nil
		}
		for _, v := range applied {
			slog.Info("migration applied", "version", v)
		}
		return nil
	},
}

var (
	privateKeyPath string
	publicKeyPath  string
	overwriteKeys  bool
)

var genkeysCmd = &cobra.Command{
	Use:   "genkeys",
	Short: "Generate the ES256 key pair used to sign access tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !overwriteKeys {
			for _, p := range []string{privateKeyPath, publicKeyPath} {
				if _, err := os.Stat(p); err == nil {
					return fmt.Errorf("%s exists; pass --force to replace it", p)
				}
			}
		}
		for _, p := range []string{privateKeyPath, publicKeyPath} {
			if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
				return fmt.Errorf("create key directory: %w", err)
			}
		}

		if err := auth.GenerateKeyPair(privateKeyPath, publicKeyPath); err != nil {
			return err
		}
		slog.Info("key pair written",
			"private", privateKeyPath,
			"public", publicKeyPath,
		)
		return nil
	},
}

var (
	adminPassword string
	adminName     string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the primordial admin account if it does not exist",
	Long: `Creates admin@<users.email_domain> with the admin role. The password
comes from --password or users.admin_password and must satisfy the password
policy. An existing account is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()

		password := adminPassword
		if password == "" {
			password = s.cfg.Users.AdminPassword
		}
		if password == "" {
			return errors.New("no admin password: pass --password or set ADMIN_PASSWORD")
		}
		name := adminName
		if name == "" {
			name = s.cfg.Users.AdminName
		}

		policy := user.Policy{EmailDomain: s.cfg.Users.EmailDomain}
		svc := user.NewService(user.NewRepository(s.db.DB), policy, nil)

		created, err := svc.EnsurePrimordialAdmin(cmd.Context(), name, password)
		if err != nil {
			return err
		}
		if !created {
			slog.Info("primordial admin already exists", "email", policy.PrimordialEmail())
			return nil
		}
		slog.Info("primordial admin created", "email", policy.PrimordialEmail())
		return nil
	},
}

var renumberFolderID string

var renumberCmd = &cobra.Command{
	Use:   "renumber",
	Short: "Rewrite archived stack numbers to 1..N",
	Long: `Renumbers the archived stack of one folder (--folder) or of every
folder holding records. Live clients are notified through the change channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		bus := feed.NewRedisBus(s.redis)
		svc := record.NewService(
			record.NewRepository(s.db.DB),
			location.NewService(location.NewRepository(s.db.DB), bus),
			bus,
			s.cfg.Records.BulkDeleteConcurrency,
		)

		if renumberFolderID != "" {
			n, err := svc.RenumberFolder(cmd.Context(), renumberFolderID)
			if err != nil {
				return err
			}
			slog.Info("folder renumbered", "folder_id", renumberFolderID, "changed", n)
			return nil
		}

		changed, err := svc.RenumberAll(cmd.Context())
		if err != nil {
			return err
		}
		folders := make([]string, 0, len(changed))
		for id := range changed {
			folders = append(folders, id)
		}
		slices.Sort(folders)

		total := 0
		for _, id := range folders {
			if changed[id] > 0 {
				slog.Info("folder renumbered", "folder_id", id, "changed", changed[id])
			}
			total += changed[id]
		}
		slog.Info("renumber complete", "folders", len(folders), "changed", total)
		return nil
	},
}

var pruneGrace time.Duration

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete expired refresh tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()

		cutoff := time.Now().Add(-pruneGrace)
		n, err := auth.NewRepository(s.db.DB).DeleteExpired(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		slog.Info("expired sessions deleted", "count", n, "expired_before", cutoff)
		return nil
	},
}

func init() {
	genkeysCmd.Flags().StringVar(&privateKeyPath, "private", "keys/private.pem", "private key output path")
	genkeysCmd.Flags().StringVar(&publicKeyPath, "public", "keys/public.pem", "public key output path")
	genkeysCmd.Flags().BoolVar(&overwriteKeys, "force", false, "replace existing key files")

	seedAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (defaults to users.admin_password)")
	seedAdminCmd.Flags().StringVar(&adminName, "name", "", "admin display name (defaults to users.admin_name)")

	renumberCmd.Flags().StringVar(&renumberFolderID, "folder", "", "renumber only this folder id")

	pruneTokensCmd.Flags().DurationVar(&pruneGrace, "grace", 24*time.Hour, "keep sessions that expired less than this long ago")
}
