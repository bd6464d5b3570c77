package services

const (
	// CV review endpoints
	endpointAnalyze = "/api/analyze/" // POST multipart

	// Pitch coach endpoints
	endpointStartSession   = "/start_session"      // POST
	endpointSendMessage    = "/send_message"       // POST
	endpointSessionAction  = "/session_action"     // POST
	endpointSessionHistory = "/session_history/%s" // GET

	fieldCVFile         = "cv_file"
	fieldJobDescription = "job_description"
)
