package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/haulbook/internal/catalog"
	"github.com/Veraticus/haulbook/internal/model"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.Products(r.Context())
	if err != nil {
		writeError(w, r, "failed to list products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	clientType := model.ClientType(r.URL.Query().Get("type"))
	if clientType != "" && !clientType.Valid() {
		writeError(w, r, "invalid client type", fmt.Errorf("%w: client type %q", errBadRequest, clientType))
		return
	}
	clients, err := s.catalog.Clients(r.Context(), clientType)
	if err != nil {
		writeError(w, r, "failed to list clients", err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.catalog.Vehicles(r.Context())
	if err != nil {
		writeError(w, r, "failed to list vehicles", err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.catalog.Drivers(r.Context())
	if err != nil {
		writeError(w, r, "failed to list drivers", err)
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	create(s, w, r, catalog.KindProducts, &p, s.store.CreateProduct)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	create(s, w, r, catalog.KindClients, &c, s.store.CreateClient)
}

func (s *Server) createVehicle(w http.ResponseWriter, r *http.Request) {
	var v model.Vehicle
	create(s, w, r, catalog.KindVehicles, &v, s.store.CreateVehicle)
}

func (s *Server) createDriver(w http.ResponseWriter, r *http.Request) {
	d := model.Driver{Active: true}
	create(s, w, r, catalog.KindDrivers, &d, s.store.CreateDriver)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	s.remove(w, r, catalog.KindProducts, s.store.DeleteProduct)
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	s.remove(w, r, catalog.KindClients, s.store.DeleteClient)
}

func (s *Server) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	s.remove(w, r, catalog.KindVehicles, s.store.DeleteVehicle)
}

func (s *Server) deleteDriver(w http.ResponseWriter, r *http.Request) {
	s.remove(w, r, catalog.KindDrivers, s.store.DeleteDriver)
}

func create[T any](s *Server, w http.ResponseWriter, r *http.Request, kind catalog.Kind, v *T, save func(context.Context, *T) error) {
	if err := decode(r, v); err != nil {
		writeError(w, r, "invalid "+string(kind), err)
		return
	}
	if err := save(r.Context(), v); err != nil {
		writeError(w, r, "failed to create "+string(kind), err)
		return
	}
	s.catalog.Invalidate(kind)
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request, kind catalog.Kind, del func(context.Context, int64) error) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, "invalid id", err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		writeError(w, r, "failed to delete from "+string(kind), err)
		return
	}
	s.catalog.Invalidate(kind)
	w.WriteHeader(http.StatusNoContent)
}
