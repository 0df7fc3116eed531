// Package services holds the application services behind the HTTP transport:
// dataset access and analytics (DataService) and health reporting
// (HealthService).
package services
