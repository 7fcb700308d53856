package bidserver

import (
	"errors"

	"github.com/evidenceledger/proxybid/internal/database"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/evidenceledger/proxybid/internal/sealbox"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

var statuses = []string{models.StatusSubmitted, models.StatusReviewing, models.StatusCompleted, models.StatusCancelled}

func (s *Server) registerAdminHandlers(adminPassword string) {

	admin := s.httpServer.Group("/admin")

	// Protect the admin area with basic auth
	adminAuth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": adminPassword,
		},
		Realm: "Admin Area",
	})

	admin.Use(adminAuth)

	admin.Get("/applications", s.AdminListApplications)
	admin.Post("/applications/:id/status", s.AdminUpdateStatus)

}

// AdminListApplications shows all applications with filters and paging
func (s *Server) AdminListApplications(c *fiber.Ctx) error {
	q := database.ListQuery{
		Status:          c.Query("status"),
		ApplicationType: c.Query("type"),
		Page:            c.QueryInt("page", 1),
		Limit:           c.QueryInt("limit", database.DefaultLimit),
		Sort:            c.Query("sort"),
		Order:           c.Query("order"),
	}

	list, err := s.store.ListApplications(c.UserContext(), q)
	if err != nil {
		return err
	}

	rows := make([]fiber.Map, 0, len(list.Data))
	for _, app := range list.Data {
		rows = append(rows, fiber.Map{
			"App":   app,
			"Phone": sealbox.Mask(app.Phone, 4),
		})
	}

	q = q.Normalize()
	lastPage := (list.Total + list.Limit - 1) / list.Limit

	return s.htmlRender.Render(c, "admin_applications", fiber.Map{
		"Rows":     rows,
		"Total":    list.Total,
		"Page":     list.Page,
		"LastPage": lastPage,
		"Query":    q,
		"Statuses": statuses,
	}, "layout")
}

// AdminUpdateStatus changes the processing status of an application
func (s *Server) AdminUpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := c.FormValue("status")

	valid := false
	for _, st := range statuses {
		if st == status {
			valid = true
		}
	}
	if !valid {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 상태 값입니다")
	}

	if err := s.store.UpdateApplicationStatus(c.UserContext(), id, status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "신청 내역을 찾을 수 없습니다")
		}
		return err
	}

	return c.Redirect("/admin/applications", fiber.StatusSeeOther)
}
