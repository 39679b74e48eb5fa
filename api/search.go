package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recap/domain"
)

func getSearch(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		meetings, tasks, err := workspace(c.Request().Context(), c, store, sess.UserID)
		if err != nil {
			return serverError(c, "storage", err)
		}
		res := domain.Search(meetings, tasks, c.QueryParam("q"))
		metricsFrom(c).SetItemsReturned(len(res.Meetings) + len(res.Tasks))
		return c.JSON(http.StatusOK, res)
	}
}

func getDashboard(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		meetings, tasks, err := workspace(c.Request().Context(), c, store, sess.UserID)
		if err != nil {
			return serverError(c, "storage", err)
		}
		return c.JSON(http.StatusOK, domain.ComputeStats(meetings, tasks))
	}
}
