package assistant

import (
	"fmt"
)

// Task templates rendered for the automation capability. These are
// deterministic string interpolations only; no generation happens in this
// layer. The numbered-step phrasing gives the browser-driving agent an
// unambiguous plan to follow.

func loginTask(dashboardURL string) string {
	return fmt.Sprintf(`Log in to the employer dashboard:
1. Navigate to %s
2. Enter your email and password
3. Click the login button
4. Wait for the dashboard to load
5. Return a success message when logged in`, dashboardURL)
}

func openJobTask(jobTitle string) string {
	return fmt.Sprintf(`Open the job post for '%s':
1. Navigate to the employer dashboard
2. Find the job post titled '%s'
3. Click on the job post to open it
4. Extract and return the following information in JSON format:
   - job_id: The job ID
   - title: The job title
   - status: The job status (active, paused, etc.)
   - applicants_count: The number of applicants
   - posted_date: The date the job was posted`, jobTitle, jobTitle)
}

func openJobInTabTask(jobTitle string) string {
	return fmt.Sprintf(`Find and open the job post titled '%s':
1. Search for the job titled '%s'
2. Click on the job post to open it
3. Extract and return the following information in JSON format:
   - job_id: The job ID
   - title: The job title
   - status: The job status (active, paused, etc.)
   - applicants_count: The number of applicants
   - posted_date: The date the job was posted`, jobTitle, jobTitle)
}

func getApplicantsTask(jobTitle string) string {
	return fmt.Sprintf(`Get all applicants for the job '%s':
1. Navigate to the employer dashboard
2. Find the job post titled '%s'
3. Click on the job post to open it
4. Navigate to the applicants tab
5. Extract and return all applicant information as a JSON array with the following fields for each applicant:
   - name: Applicant's full name
   - position: Job position applied for
   - date: Application date
   - status: Current status (New, Reviewed, Interviewed, etc.)
   - experience: Years of experience
   - skills: Array of skills`, jobTitle, jobTitle)
}

func sendInviteTask(jobTitle, applicant string) string {
	if applicant != "" {
		return fmt.Sprintf(`Send an interview invite to the applicant '%s' for the job '%s':
1. Navigate to the employer dashboard
2. Find the job post titled '%s'
3. Click on the job post to open it
4. Navigate to the applicants tab
5. Find the applicant named '%s'
6. Click on the applicant to view their profile
7. Click the 'Send Interview Invite' button
8. Fill in the interview details (date, time, location/meeting link)
9. Send the invite
10. Return a success message when the invite is sent`, applicant, jobTitle, jobTitle, applicant)
	}
	return fmt.Sprintf(`Send interview invites to all applicants for the job '%s':
1. Navigate to the employer dashboard
2. Find the job post titled '%s'
3. Click on the job post to open it
4. Navigate to the applicants tab
5. Select all applicants
6. Click the 'Send Interview Invite' button
7. Fill in the interview details (date, time, location/meeting link)
8. Send the invites
9. Return a success message when the invites are sent`, jobTitle, jobTitle)
}

func updateStatusTask(jobTitle, applicant, newStatus string) string {
	return fmt.Sprintf(`Update the status of the applicant '%s' for the job '%s' to '%s':
1. Navigate to the employer dashboard
2. Find the job post titled '%s'
3. Click on the job post to open it
4. Navigate to the applicants tab
5. Find the applicant named '%s'
6. Click on the applicant to view their profile
7. Update their status to '%s'
8. Save the changes
9. Return a success message when the status is updated`, applicant, jobTitle, newStatus, jobTitle, applicant, newStatus)
}

func searchJobsTask(query string) string {
	return fmt.Sprintf(`Search for jobs matching '%s':
1. Navigate to the employer dashboard
2. Use the search functionality to find jobs matching '%s'
3. Extract and return all matching job information as a JSON array with the following fields for each job:
   - job_id: The job ID
   - title: The job title
   - status: The job status (active, paused, etc.)
   - applicants_count: The number of applicants
   - posted_date: The date the job was posted`, query, query)
}

func createJobTask(jobTitle string) (string, error) {
	// The dashboard requires a full posting; fill in neutral defaults the
	// operator can edit afterwards.
	details := map[string]interface{}{
		"title":               jobTitle,
		"description":         fmt.Sprintf("Job description for %s", jobTitle),
		"location":            "Remote",
		"employment_type":     "Full-time",
		"salary":              "Competitive",
		"required_skills":     []string{"Skill 1", "Skill 2", "Skill 3"},
		"preferred_skills":    []string{"Skill 4", "Skill 5"},
		"required_experience": "3+ years",
		"education":           "Bachelor's degree or equivalent",
	}
	detailsJSON, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Create a new job post with the following details:
%s

Steps:
1. Navigate to the employer dashboard
2. Click on 'Post a Job'
3. Fill in all the job details as specified above
4. Review the job post
5. Publish the job post
6. Return a success message with the job ID when the job is published`, string(detailsJSON)), nil
}
