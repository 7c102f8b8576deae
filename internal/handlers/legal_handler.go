package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type LegalHandler struct {
	appName string
}

func NewLegalHandler(appName string) *LegalHandler {
	if appName == "" {
		appName = "CRMS"
	}
	return &LegalHandler{appName: appName}
}

// PrivacyNotice is the data privacy notice students accept at signup.
func (h *LegalHandler) PrivacyNotice(c *fiber.Ctx) error {
	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.JSON(fiber.Map{
			"success": true,
			"title":   "Data Privacy Notice",
			"version": 1,
			"sections": []fiber.Map{
				{"heading": "Information We Collect", "body": "Your name, student or employee number, contact details, guardian details, attendance and academic records."},
				{"heading": "How We Use Your Information", "body": "To manage enrollment, attendance, grading and academic reporting within the institution."},
				{"heading": "Who Can See It", "body": "Your instructors, program chair, dean and authorized registrar staff. Records are never sold or shared with third parties."},
				{"heading": "Your Rights", "body": "You may request access to or correction of your records through the registrar."},
			},
		})
	}

	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Data Privacy Notice - ` + h.appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Data Privacy Notice</h1>
<h2>Information We Collect</h2>
<p>Your name, student or employee number, contact details, guardian details, attendance and academic records.</p>
<h2>How We Use Your Information</h2>
<p>To manage enrollment, attendance, grading and academic reporting within the institution.</p>
<h2>Who Can See It</h2>
<p>Your instructors, program chair, dean and authorized registrar staff. Records are never sold or shared with third parties.</p>
<h2>Your Rights</h2>
<p>You may request access to or correction of your records through the registrar.</p>
</body></html>`)
}
