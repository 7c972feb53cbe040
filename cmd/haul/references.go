package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Veraticus/haulbook/internal/cli"
	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/format"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/storage"
	"github.com/spf13/cobra"
)

// referenceCmd builds the parent command of one reference list.
func referenceCmd(use, short string, subs ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short}
	cmd.AddCommand(subs...)
	return cmd
}

func productsCmd() *cobra.Command {
	return referenceCmd("products", "Manage products",
		productsAddCmd(),
		listCmd("List products", func(ctx context.Context, store *storage.SQLiteStorage) ([]string, [][]string, error) {
			products, err := store.ListProducts(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to list products: %w", err)
			}
			rows := make([][]string, len(products))
			for i, p := range products {
				rows[i] = []string{strconv.FormatInt(p.ID, 10), p.Name, p.Unit, format.Currency(p.Rate), strconv.Itoa(p.FrequencyOfUse)}
			}
			return []string{"ID", "NAME", "UNIT", "RATE", "USES"}, rows, nil
		}),
		deleteCmd("product", func(s *storage.SQLiteStorage) func(context.Context, int64) error { return s.DeleteProduct }),
	)
}

func productsAddCmd() *cobra.Command {
	var p model.Product
	var rate string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]
			r, err := format.ParseDecimal(rate)
			if err != nil {
				return fmt.Errorf("invalid rate: %w", err)
			}
			p.Rate = r
			return create(cmd, "product", func(ctx context.Context, s *storage.SQLiteStorage) (int64, error) {
				err := s.CreateProduct(ctx, &p)
				return p.ID, err
			})
		},
	}

	cmd.Flags().StringVar(&p.Unit, "unit", "", "unit of measure, e.g. MT")
	cmd.Flags().StringVar(&rate, "rate", "", "default rate per unit")
	cmd.Flags().StringVar(&p.Description, "description", "", "free-form description")
	return cmd
}

func clientsCmd() *cobra.Command {
	var clientType string

	list := listCmd("List clients", func(ctx context.Context, store *storage.SQLiteStorage) ([]string, [][]string, error) {
		ct, err := parseClientType(clientType, true)
		if err != nil {
			return nil, nil, err
		}
		clients, err := store.ListClients(ctx, ct)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list clients: %w", err)
		}
		rows := make([][]string, len(clients))
		for i, c := range clients {
			rows[i] = []string{strconv.FormatInt(c.ID, 10), c.Name, string(c.Type), c.Size.Label(), c.State, strconv.Itoa(c.FrequencyOfUse)}
		}
		return []string{"ID", "NAME", "TYPE", "SIZE", "STATE", "USES"}, rows, nil
	})
	list.Flags().StringVar(&clientType, "type", "", "only loading or unloading points")

	return referenceCmd("clients", "Manage loading and unloading points",
		clientsAddCmd(),
		list,
		deleteCmd("client", func(s *storage.SQLiteStorage) func(context.Context, int64) error { return s.DeleteClient }),
	)
}

func clientsAddCmd() *cobra.Command {
	var c model.Client
	var clientType, size string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a loading or unloading point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Name = args[0]
			ct, err := parseClientType(clientType, false)
			if err != nil {
				return err
			}
			c.Type = ct
			c.Size = model.ClientSize(size)
			if !c.Size.Valid() {
				return fmt.Errorf("invalid size %q: use big, medium, small or misc", size)
			}
			return create(cmd, "client", func(ctx context.Context, s *storage.SQLiteStorage) (int64, error) {
				err := s.CreateClient(ctx, &c)
				return c.ID, err
			})
		},
	}

	cmd.Flags().StringVar(&clientType, "type", "", "loading or unloading (required)")
	cmd.Flags().StringVar(&size, "size", string(model.SizeMisc), "big, medium, small or misc")
	cmd.Flags().StringVar(&c.Address, "address", "", "street address")
	cmd.Flags().StringVar(&c.State, "state", "", "state")
	cmd.Flags().StringVar(&c.Pin, "pin", "", "postal code")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func parseClientType(s string, allowEmpty bool) (model.ClientType, error) {
	switch s {
	case "":
		if allowEmpty {
			return "", nil
		}
	case "loading", string(model.ClientLoadingPoint):
		return model.ClientLoadingPoint, nil
	case "unloading", string(model.ClientUnloadingPoint):
		return model.ClientUnloadingPoint, nil
	}
	return "", fmt.Errorf("invalid client type %q: use loading or unloading", s)
}

func vehiclesCmd() *cobra.Command {
	return referenceCmd("vehicles", "Manage vehicles",
		vehiclesAddCmd(),
		listCmd("List vehicles", func(ctx context.Context, store *storage.SQLiteStorage) ([]string, [][]string, error) {
			vehicles, err := store.ListVehicles(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to list vehicles: %w", err)
			}
			rows := make([][]string, len(vehicles))
			for i, v := range vehicles {
				rows[i] = []string{strconv.FormatInt(v.ID, 10), v.Number, v.Type, strconv.Itoa(v.FrequencyOfUse)}
			}
			return []string{"ID", "NUMBER", "TYPE", "USES"}, rows, nil
		}),
		deleteCmd("vehicle", func(s *storage.SQLiteStorage) func(context.Context, int64) error { return s.DeleteVehicle }),
	)
}

func vehiclesAddCmd() *cobra.Command {
	var v model.Vehicle

	cmd := &cobra.Command{
		Use:   "add NUMBER",
		Short: "Add a vehicle by registration number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Number = args[0]
			return create(cmd, "vehicle", func(ctx context.Context, s *storage.SQLiteStorage) (int64, error) {
				err := s.CreateVehicle(ctx, &v)
				return v.ID, err
			})
		},
	}

	cmd.Flags().StringVar(&v.Type, "type", "", "vehicle type, e.g. truck")
	return cmd
}

func driversCmd() *cobra.Command {
	return referenceCmd("drivers", "Manage drivers",
		driversAddCmd(),
		listCmd("List drivers", func(ctx context.Context, store *storage.SQLiteStorage) ([]string, [][]string, error) {
			drivers, err := store.ListDrivers(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to list drivers: %w", err)
			}
			rows := make([][]string, len(drivers))
			for i, d := range drivers {
				active := "yes"
				if !d.Active {
					active = "no"
				}
				rows[i] = []string{strconv.FormatInt(d.ID, 10), d.Name, d.Phone, active}
			}
			return []string{"ID", "NAME", "PHONE", "ACTIVE"}, rows, nil
		}),
		deleteCmd("driver", func(s *storage.SQLiteStorage) func(context.Context, int64) error { return s.DeleteDriver }),
		driverActiveCmd("activate", true),
		driverActiveCmd("deactivate", false),
	)
}

func driversAddCmd() *cobra.Command {
	d := model.Driver{Active: true}

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Name = args[0]
			return create(cmd, "driver", func(ctx context.Context, s *storage.SQLiteStorage) (int64, error) {
				err := s.CreateDriver(ctx, &d)
				return d.ID, err
			})
		},
	}

	cmd.Flags().StringVar(&d.Phone, "phone", "", "contact number")
	return cmd
}

func driverActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: "Mark a driver " + map[bool]string{true: "active", false: "inactive"}[active],
		Long:  "Inactive drivers stay on old transactions but are no longer offered when recording new ones.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.SetDriverActive(cmd.Context(), id, active); err != nil {
				return friendly(err, "driver", id)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Driver %d updated", id)))
			return nil
		},
	}
}

func create(cmd *cobra.Command, what string, save func(context.Context, *storage.SQLiteStorage) (int64, error)) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	id, err := save(ctx, store)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return common.NewUserError("A "+what+" with that name already exists", err)
		}
		return fmt.Errorf("failed to create %s: %w", what, err)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %s %d", what, id)))
	return nil
}

func listCmd(short string, load func(context.Context, *storage.SQLiteStorage) ([]string, [][]string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			headers, rows, err := load(ctx, store)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("Nothing here yet."))
				return nil
			}
			return printTable(cmd.OutOrStdout(), headers, rows)
		},
	}
}

func deleteCmd(what string, del func(*storage.SQLiteStorage) func(context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + what,
		Long:  "Delete a " + what + ". Entries still used by transactions cannot be deleted.",
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

			if err := del(store)(ctx, id); err != nil {
				return friendly(err, what, id)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %s %d", what, id)))
			return nil
		},
	}
}

// friendly turns storage sentinels into messages for the terminal.
func friendly(err error, what string, id int64) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return common.NewUserError(fmt.Sprintf("No %s with id %d", what, id), err)
	case errors.Is(err, common.ErrReferenceInUse):
		return common.NewUserError(fmt.Sprintf("The %s %d is still used by transactions", what, id), err)
	}
	return fmt.Errorf("failed to update %s %d: %w", what, id, err)
}
