package server

import (
	"fmt"
	"strings"
)

// ANSI colours for the DEV route listing.
const (
	colourGreen   = "\033[32m"
	colourBlue    = "\033[34m"
	colourCyan    = "\033[36m"
	colourYellow  = "\033[33m"
	colourMagenta = "\033[35m"
	colourGray    = "\033[90m"
	colourReset   = "\033[0m"
)

var methodColours = map[string]string{
	"GET":     colourGreen,
	"POST":    colourBlue,
	"PUT":     colourCyan,
	"DELETE":  colourYellow,
	"PATCH":   colourMagenta,
	"OPTIONS": colourGray,
}

// logRoutes prints the route table on startup in DEV.
func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		fmt.Println(routeLine(method, path))
	}
}

func routeLine(method, path string) string {
	colour, ok := methodColours[method]
	if !ok {
		colour = colourGray
	}
	return fmt.Sprintf("[%s %-7s%s] %s", colour, method, colourReset, path)
}
