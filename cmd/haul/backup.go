package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Veraticus/haulbook/internal/cli"
	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/storage"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Aliases: []string{"checkpoint"},
		Short:   "Manage database backups",
		Long: `Snapshot the database and restore it later.

Backups live in a backups directory next to the database. Deleting a
transaction or restoring a backup takes an automatic backup first; only the
newest automatic backups are kept.`,
	}

	cmd.AddCommand(backupCreateCmd())
	cmd.AddCommand(backupListCmd())
	cmd.AddCommand(backupRestoreCmd())
	cmd.AddCommand(backupDeleteCmd())
	return cmd
}

func backupCreateCmd() *cobra.Command {
	var tag, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			bm, err := store.NewBackupManager()
			if err != nil {
				return err
			}
			info, err := bm.Create(ctx, tag, description)
			if err != nil {
				if errors.Is(err, storage.ErrBackupExists) {
					return common.NewUserError(fmt.Sprintf("A backup named %q already exists", tag), err)
				}
				return fmt.Errorf("failed to create backup: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created backup %s", info.ID)))
			fmt.Printf("  Transactions: %d\n  Size: %s\n", info.Transactions(), formatFileSize(info.FileSize))
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "backup name (default: timestamp)")
	cmd.Flags().StringVar(&description, "description", "", "what the backup is for")
	return cmd
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			bm, err := store.NewBackupManager()
			if err != nil {
				return err
			}
			backups, err := bm.List(ctx)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Println(cli.InfoStyle.Render("No backups yet. Create one with 'haul backup create'."))
				return nil
			}

			rows := make([][]string, len(backups))
			for i, b := range backups {
				kind := "manual"
				if b.IsAuto {
					kind = "auto"
				}
				rows[i] = []string{
					b.ID,
					b.CreatedAt.Format("2006-01-02 15:04"),
					kind,
					strconv.Itoa(b.Transactions()),
					formatFileSize(b.FileSize),
					b.Description,
				}
			}
			if err := printTable(cmd.OutOrStdout(), []string{"ID", "CREATED", "KIND", "TXNS", "SIZE", "DESCRIPTION"}, rows); err != nil {
				return err
			}
			fmt.Println(cli.SubtleStyle.Render("Stored in " + bm.Dir()))
			return nil
		},
	}
}

func backupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID",
		Short: "Replace the database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}

			bm, err := store.NewBackupManager()
			if err != nil {
				closeStorage(store)
				return err
			}
			if _, err := bm.Get(ctx, args[0]); err != nil {
				closeStorage(store)
				return backupError(err, args[0])
			}

			autoBackup(ctx, store, "restore")

			// Restore closes the database handle itself.
			if err := bm.Restore(ctx, args[0]); err != nil {
				return backupError(err, args[0])
			}

			// Bring an older snapshot up to the current schema.
			restored, err := initStorage(ctx)
			if err != nil {
				return err
			}
			closeStorage(restored)

			common.LogInfo(ctx, "restored backup", common.Fields{"id": args[0], "path": restored.Path()})
			fmt.Println(cli.FormatSuccess("Restored backup " + args[0]))
			return nil
		},
	}
}

func backupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			bm, err := store.NewBackupManager()
			if err != nil {
				return err
			}
			if err := bm.Delete(ctx, args[0]); err != nil {
				return backupError(err, args[0])
			}
			fmt.Println(cli.FormatSuccess("Deleted backup " + args[0]))
			return nil
		},
	}
}

func backupError(err error, id string) error {
	switch {
	case errors.Is(err, storage.ErrBackupNotFound):
		return common.NewUserError(fmt.Sprintf("No backup named %q", id), err)
	case errors.Is(err, storage.ErrBackupCorrupted):
		return common.NewUserError(fmt.Sprintf("Backup %q failed its integrity check", id), err)
	case errors.Is(err, storage.ErrInvalidBackupID):
		return common.NewUserError("Backup names cannot contain path separators", err)
	}
	return err
}
