package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/haulbook/internal/catalog"
	"github.com/Veraticus/haulbook/internal/cli"
	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/draft"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/Veraticus/haulbook/internal/storage"
	"github.com/Veraticus/haulbook/internal/tui"
	"github.com/Veraticus/haulbook/internal/tui/components"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/spf13/cobra"
)

func txnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txn",
		Aliases: []string{"transactions"},
		Short:   "Record and browse transactions",
	}

	cmd.AddCommand(txnAddCmd())
	cmd.AddCommand(txnEditCmd())
	cmd.AddCommand(txnListCmd())
	cmd.AddCommand(txnShowCmd())
	cmd.AddCommand(txnDeleteCmd())
	cmd.AddCommand(txnSoldCmd())
	cmd.AddCommand(txnColumnsCmd())
	cmd.AddCommand(txnHistoryCmd())
	cmd.AddCommand(exportCmd())
	return cmd
}

func txnAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Record a new transaction interactively",
		Long: `Walks through the three sections of a transaction (details, loading,
unloading), shows the financial summary and saves after confirmation.

Enter a list number or a name for references, YYYY-MM-DD for dates.
Leave an answer blank to keep the shown value, or type - to clear it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEntry(cmd, nil)
		},
	}
}

func txnEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a transaction interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runEntry(cmd, &id)
		},
	}
}

// runEntry drives the entry prompter for a new transaction, or for the
// transaction with the given id when id is not nil.
func runEntry(cmd *cobra.Command, id *int64) error {
	interrupts := cli.NewInterruptHandler(cmd.OutOrStdout())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Transaction entry")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	cat := newCatalog(store)
	choices, err := loadChoices(ctx, cat)
	if err != nil {
		return err
	}

	calc := draft.New()
	if id != nil {
		txn, err := store.GetTransaction(ctx, *id)
		if err != nil {
			return friendly(err, "transaction", *id)
		}
		calc.Load(txn)
	}

	var saved *model.Transaction
	submitter := service.NewDraftSubmitter(store, func(txn *model.Transaction) {
		saved = txn
		cat.InvalidateAll()
	})

	prompter := cli.NewEntryPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), choices)
	ok, err := prompter.Run(ctx, calc, submitter)
	switch {
	case interrupts.WasInterrupted():
		return nil
	case errors.Is(err, io.EOF):
		return common.NewUserError("Input ended before the transaction was saved", err)
	case err != nil:
		return err
	case !ok:
		return nil
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved transaction %d (%s)", saved.ID, saved.Status())))
	return nil
}

func loadChoices(ctx context.Context, cat *catalog.Catalog) (cli.Choices, error) {
	products, err := cat.Products(ctx)
	if err != nil {
		return cli.Choices{}, fmt.Errorf("failed to load products: %w", err)
	}
	clients, err := cat.Clients(ctx, "")
	if err != nil {
		return cli.Choices{}, fmt.Errorf("failed to load clients: %w", err)
	}
	vehicles, err := cat.Vehicles(ctx)
	if err != nil {
		return cli.Choices{}, fmt.Errorf("failed to load vehicles: %w", err)
	}
	drivers, err := cat.Drivers(ctx)
	if err != nil {
		return cli.Choices{}, fmt.Errorf("failed to load drivers: %w", err)
	}
	return cli.ChoicesFrom(products, clients, vehicles, drivers), nil
}

func txnListCmd() *cobra.Command {
	var (
		filters  filterFlags
		page     int
		pageSize int
		sortBy   string
		desc     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of transactions",
		Long: `Prints one page of matching transactions using the visible columns.
Page and page size default to the ones last used in the history browser.
Sorting applies to the printed page only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := filters.build()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if filters.hasNames() {
				if err := filters.resolve(ctx, newCatalog(store), &filter); err != nil {
					return err
				}
			}

			table := newTable(ctx, store)
			stored := table.Pagination()
			if page <= 0 {
				page = stored.Page
			}
			if pageSize <= 0 {
				pageSize = stored.PageSize
			}

			if sortBy != "" {
				field, err := viewmodel.ParseSortField(sortBy)
				if err != nil {
					return err
				}
				applySort(table, field, desc)
			}

			res, err := store.SearchTransactions(ctx, filter, page, pageSize)
			if err != nil {
				return fmt.Errorf("failed to search transactions: %w", err)
			}
			if res.Total == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}
			if len(res.Transactions) == 0 {
				return common.NewUserError(fmt.Sprintf("Page %d is past the last page (%d)", page, res.LastPage), nil)
			}

			records := table.Sort(res.Transactions)
			if err := printTable(cmd.OutOrStdout(), table.Headers(), table.Rows(records)); err != nil {
				return err
			}
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%s · page %d of %d", res.Summary(), res.CurrentPage, res.LastPage)))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&page, "page", 0, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "per-page", 0, "rows per page")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort the page by id, loading_date, unloading_date, product_name, loading_quantity, unloading_quantity or transport_expense")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

// applySort sets field with the requested order. SetSort flips the order
// when the field is already active, so a second call fixes a wrong guess.
func applySort(table *viewmodel.TransactionTable, field viewmodel.SortField, desc bool) {
	want := viewmodel.SortAscending
	if desc {
		want = viewmodel.SortDescending
	}
	table.SetSort(field)
	if table.SortConfig().Order != want {
		table.SetSort(field)
	}
}

func txnShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show every field of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			txn, err := store.GetTransaction(ctx, id)
			if err != nil {
				return friendly(err, "transaction", id)
			}
			fmt.Println(components.TransactionDetail(txn, currentTheme(), 80))
			return nil
		},
	}
}

func txnDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Long:  "Delete a transaction. An automatic backup is taken first unless --force is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if !force {
				autoBackup(ctx, store, "delete-transaction")
			}

			if err := store.DeleteTransaction(ctx, id); err != nil {
				return friendly(err, "transaction", id)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the automatic backup")
	return cmd
}

func txnSoldCmd() *cobra.Command {
	var unsold bool

	cmd := &cobra.Command{
		Use:   "sold ID",
		Short: "Mark a transaction as sold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.MarkSold(ctx, id, !unsold); err != nil {
				return friendly(err, "transaction", id)
			}
			txn, err := store.GetTransaction(ctx, id)
			if err != nil {
				return friendly(err, "transaction", id)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transaction %d is now %s", id, txn.Status())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unsold, "unsold", false, "clear the sold flag instead")
	return cmd
}

func txnColumnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show which table columns are visible",
		Long:  "Column visibility is shared by list, history and export.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTable(cmd, func(table *viewmodel.TransactionTable) error {
				rows := make([][]string, 0, len(viewmodel.AllColumns()))
				for _, key := range viewmodel.AllColumns() {
					mark := "[ ]"
					if table.IsVisible(key) {
						mark = "[x]"
					}
					rows = append(rows, []string{mark, key.String(), key.Title()})
				}
				return printTable(cmd.OutOrStdout(), []string{"", "KEY", "TITLE"}, rows)
			})
		},
	}

	cmd.AddCommand(columnVisibilityCmd("show", true))
	cmd.AddCommand(columnVisibilityCmd("hide", false))
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Show every column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTable(cmd, func(table *viewmodel.TransactionTable) error {
				table.ShowAllColumns()
				fmt.Println(cli.FormatSuccess("All columns visible"))
				return nil
			})
		},
	})
	return cmd
}

func columnVisibilityCmd(use string, visible bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " KEY...",
		Short: map[bool]string{true: "Show", false: "Hide"}[visible] + " columns by key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]viewmodel.ColumnKey, len(args))
			for i, arg := range args {
				key, err := viewmodel.ParseColumnKey(arg)
				if err != nil {
					return err
				}
				keys[i] = key
			}
			return withTable(cmd, func(table *viewmodel.TransactionTable) error {
				for _, key := range keys {
					table.SetColumnVisibility(key, visible)
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d visible columns", len(table.VisibleColumns()))))
				return nil
			})
		},
	}
}

func withTable(cmd *cobra.Command, fn func(*viewmodel.TransactionTable) error) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)
	return fn(newTable(ctx, store))
}

func txnHistoryCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse transactions in a full-screen table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := filters.build()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if filters.hasNames() {
				if err := filters.resolve(ctx, newCatalog(store), &filter); err != nil {
					return err
				}
			}

			return tui.RunHistory(ctx, newTable(ctx, store), tui.StorePageLoader(store, filter),
				tui.WithTheme(currentTheme()),
				tui.WithLogger(slog.Default()),
			)
		},
	}

	filters.register(cmd)
	return cmd
}

// autoBackup snapshots the database before a destructive change. A
// failed backup is logged and does not block the change.
func autoBackup(ctx context.Context, store *storage.SQLiteStorage, operation string) {
	bm, err := store.NewBackupManager()
	if err != nil {
		slog.Warn("Failed to open backups", "error", err)
		return
	}
	info, err := bm.AutoBackup(ctx, operation)
	if err != nil {
		common.LogError(ctx, err, "Failed to create automatic backup", common.Fields{"operation": operation})
		return
	}
	common.LogDebug(ctx, "created automatic backup", common.Fields{"id": info.ID, "operation": operation})
}
