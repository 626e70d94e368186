package handlers

import "github.com/gofiber/fiber/v2"

// fail writes the uniform error shape: {error, details?, correlationId}.
// The correlation id is the request id the middleware assigned, so operators
// can match a client-reported failure to the engine logs.
func fail(c *fiber.Ctx, status int, msg string, details any) error {
	body := fiber.Map{"error": msg}
	if details != nil {
		body["details"] = details
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		body["correlationId"] = rid
	}
	return c.Status(status).JSON(body)
}
