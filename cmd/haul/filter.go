package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/haulbook/internal/catalog"
	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/spf13/cobra"
)

// filterFlags are the search flags shared by list, history and export.
type filterFlags struct {
	loadingFrom    string
	loadingTo      string
	unloadingFrom  string
	unloadingTo    string
	status         string
	loadingSizes   []string
	unloadingSizes []string
	products       []int64
	vehicles       []int64
	loadingPoints  []int64
	unloadPoints   []int64

	// Names resolved through the catalog and merged into the id lists.
	productNames   []string
	vehicleNumbers []string
	loadingNames   []string
	unloadingNames []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.loadingFrom, "loading-from", "", "earliest loading date (YYYY-MM-DD)")
	fs.StringVar(&f.loadingTo, "loading-to", "", "latest loading date (YYYY-MM-DD)")
	fs.StringVar(&f.unloadingFrom, "unloading-from", "", "earliest unloading date (YYYY-MM-DD)")
	fs.StringVar(&f.unloadingTo, "unloading-to", "", "latest unloading date (YYYY-MM-DD)")
	fs.StringVar(&f.status, "sold", "", "yes for sold, no for unsold")
	fs.Int64SliceVar(&f.products, "product", nil, "product ids")
	fs.Int64SliceVar(&f.vehicles, "vehicle", nil, "vehicle ids")
	fs.Int64SliceVar(&f.loadingPoints, "loading-point", nil, "loading point ids")
	fs.Int64SliceVar(&f.unloadPoints, "unloading-point", nil, "unloading point ids")
	fs.StringSliceVar(&f.productNames, "product-name", nil, "product names")
	fs.StringSliceVar(&f.vehicleNumbers, "vehicle-number", nil, "vehicle registration numbers")
	fs.StringSliceVar(&f.loadingNames, "loading-point-name", nil, "loading point names")
	fs.StringSliceVar(&f.unloadingNames, "unloading-point-name", nil, "unloading point names")
	fs.StringSliceVar(&f.loadingSizes, "loading-size", nil, "loading point sizes (big, medium, small, misc)")
	fs.StringSliceVar(&f.unloadingSizes, "unloading-size", nil, "unloading point sizes")
}

func (f *filterFlags) build() (service.TransactionFilter, error) {
	var filter service.TransactionFilter
	var err error

	if filter.LoadingFrom, err = parseDate(f.loadingFrom); err != nil {
		return filter, err
	}
	if filter.LoadingTo, err = parseDate(f.loadingTo); err != nil {
		return filter, err
	}
	if filter.UnloadingFrom, err = parseDate(f.unloadingFrom); err != nil {
		return filter, err
	}
	if filter.UnloadingTo, err = parseDate(f.unloadingTo); err != nil {
		return filter, err
	}

	switch strings.ToLower(f.status) {
	case "":
	case "yes", "true":
		sold := true
		filter.Sold = &sold
	case "no", "false":
		sold := false
		filter.Sold = &sold
	default:
		return filter, fmt.Errorf("invalid --sold value %q: use yes or no", f.status)
	}

	filter.ProductIDs = f.products
	filter.VehicleIDs = f.vehicles
	filter.LoadingPointIDs = f.loadingPoints
	filter.UnloadingPointIDs = f.unloadPoints

	if filter.LoadingClientSizes, err = parseSizes(f.loadingSizes); err != nil {
		return filter, err
	}
	if filter.UnloadingClientSizes, err = parseSizes(f.unloadingSizes); err != nil {
		return filter, err
	}
	return filter, nil
}

func (f *filterFlags) hasNames() bool {
	return len(f.productNames)+len(f.vehicleNumbers)+len(f.loadingNames)+len(f.unloadingNames) > 0
}

// resolve looks the name flags up in cat and appends their ids to filter.
func (f *filterFlags) resolve(ctx context.Context, cat *catalog.Catalog, filter *service.TransactionFilter) error {
	for _, name := range f.productNames {
		p, err := cat.FindProduct(ctx, name)
		if err != nil {
			return lookupError(err, "product", name)
		}
		filter.ProductIDs = append(filter.ProductIDs, p.ID)
	}
	for _, number := range f.vehicleNumbers {
		v, err := cat.FindVehicle(ctx, number)
		if err != nil {
			return lookupError(err, "vehicle", number)
		}
		filter.VehicleIDs = append(filter.VehicleIDs, v.ID)
	}
	for _, name := range f.loadingNames {
		c, err := cat.FindClient(ctx, model.ClientLoadingPoint, name)
		if err != nil {
			return lookupError(err, "loading point", name)
		}
		filter.LoadingPointIDs = append(filter.LoadingPointIDs, c.ID)
	}
	for _, name := range f.unloadingNames {
		c, err := cat.FindClient(ctx, model.ClientUnloadingPoint, name)
		if err != nil {
			return lookupError(err, "unloading point", name)
		}
		filter.UnloadingPointIDs = append(filter.UnloadingPointIDs, c.ID)
	}
	return nil
}

func lookupError(err error, what, name string) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("No %s named %q", what, name), err)
	}
	return err
}

func parseSizes(raw []string) ([]model.ClientSize, error) {
	var sizes []model.ClientSize
	for _, r := range raw {
		s := model.ClientSize(strings.ToLower(r))
		if !s.Valid() {
			return nil, fmt.Errorf("invalid client size %q", r)
		}
		sizes = append(sizes, s)
	}
	return sizes, nil
}
