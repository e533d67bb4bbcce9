package http

import (
	"context"
	"io"
	"net/http"

	"transcoop/internal/report"
)

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	serveList(s, w, r, func(ctx context.Context) ([]driverJSON, error) {
		list, err := s.svc.Drivers.List(ctx)
		return mapSlice(list, driverFromCore), err
	})
}

func (s *Server) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (driverJSON, error) {
		d, err := s.svc.Drivers.Get(ctx, id)
		return driverFromCore(d), err
	})
}

func (s *Server) handleCreateDriver(w http.ResponseWriter, r *http.Request) {
	var req driverJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusCreated, func(ctx context.Context) (driverJSON, error) {
		d, err := s.svc.Drivers.Create(ctx, req.toCore())
		return driverFromCore(d), err
	})
}

func (s *Server) handleUpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req driverJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	req.ID = id
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (driverJSON, error) {
		d, err := s.svc.Drivers.Update(ctx, req.toCore())
		return driverFromCore(d), err
	})
}

func (s *Server) handleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (empty, error) {
		return empty{}, s.svc.Drivers.Delete(ctx, id)
	})
}

func (s *Server) handleExportDrivers(w http.ResponseWriter, r *http.Request) {
	serveFile(s, w, r, "conductores.xlsx", contentTypeXLSX, func(ctx context.Context, out io.Writer) error {
		list, err := s.svc.Drivers.List(ctx)
		if err != nil {
			return err
		}
		return s.excel.Export(out, report.DriversTable(list))
	})
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	serveList(s, w, r, func(ctx context.Context) ([]vehicleJSON, error) {
		list, err := s.svc.Vehicles.List(ctx)
		return mapSlice(list, vehicleFromCore), err
	})
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (vehicleJSON, error) {
		v, err := s.svc.Vehicles.Get(ctx, id)
		return vehicleFromCore(v), err
	})
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusCreated, func(ctx context.Context) (vehicleJSON, error) {
		v, err := s.svc.Vehicles.Create(ctx, req.toCore())
		return vehicleFromCore(v), err
	})
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req vehicleJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	req.ID = id
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (vehicleJSON, error) {
		v, err := s.svc.Vehicles.Update(ctx, req.toCore())
		return vehicleFromCore(v), err
	})
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (empty, error) {
		return empty{}, s.svc.Vehicles.Delete(ctx, id)
	})
}

func (s *Server) handleExportVehicles(w http.ResponseWriter, r *http.Request) {
	serveFile(s, w, r, "vehiculos.xlsx", contentTypeXLSX, func(ctx context.Context, out io.Writer) error {
		list, err := s.svc.Vehicles.List(ctx)
		if err != nil {
			return err
		}
		return s.excel.Export(out, report.VehiclesTable(list))
	})
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	serveList(s, w, r, func(ctx context.Context) ([]routeJSON, error) {
		list, err := s.svc.Routes.List(ctx)
		return mapSlice(list, routeFromCore), err
	})
}

func (s *Server) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (routeJSON, error) {
		rt, err := s.svc.Routes.Get(ctx, id)
		return routeFromCore(rt), err
	})
}

func (s *Server) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	var req routeJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusCreated, func(ctx context.Context) (routeJSON, error) {
		rt, err := s.svc.Routes.Create(ctx, req.toCore())
		return routeFromCore(rt), err
	})
}

func (s *Server) handleUpdateRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req routeJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	req.ID = id
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (routeJSON, error) {
		rt, err := s.svc.Routes.Update(ctx, req.toCore())
		return routeFromCore(rt), err
	})
}

func (s *Server) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (empty, error) {
		return empty{}, s.svc.Routes.Delete(ctx, id)
	})
}

func (s *Server) handleExportRoutes(w http.ResponseWriter, r *http.Request) {
	serveFile(s, w, r, "rutas.xlsx", contentTypeXLSX, func(ctx context.Context, out io.Writer) error {
		list, err := s.svc.Routes.List(ctx)
		if err != nil {
			return err
		}
		return s.excel.Export(out, report.RoutesTable(list))
	})
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serveList(s, w, r, func(ctx context.Context) ([]studentJSON, error) {
		list, err := s.svc.Routes.Students(ctx, id)
		return mapSlice(list, studentFromCore), err
	})
}

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req studentJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	req.RouteID = id
	serve(s, w, r, http.StatusCreated, func(ctx context.Context) (studentJSON, error) {
		st, err := s.svc.Routes.AddStudent(ctx, req.toCore())
		return studentFromCore(st), err
	})
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req studentJSON
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	req.ID = id
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (studentJSON, error) {
		st, err := s.svc.Routes.UpdateStudent(ctx, req.toCore())
		return studentFromCore(st), err
	})
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (empty, error) {
		return empty{}, s.svc.Routes.RemoveStudent(ctx, id)
	})
}

func (s *Server) handleExportStudents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serveFile(s, w, r, "estudiantes.xlsx", contentTypeXLSX, func(ctx context.Context, out io.Writer) error {
		rt, err := s.svc.Routes.Get(ctx, id)
		if err != nil {
			return err
		}
		list, err := s.svc.Routes.Students(ctx, id)
		if err != nil {
			return err
		}
		return s.excel.Export(out, report.StudentsTable(rt, list))
	})
}

