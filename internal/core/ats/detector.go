package ats

import (
	"fmt"
	"net/url"
	"strings"
)

// knownProviders holds the hosted applicant-tracking-system domains we
// recognise. A job URL on any of these is an external ATS application
// regardless of the company site it was found on.
var knownProviders = []string{
	"allhires.com",
	"amris.com",
	"earcu.com",
	"ashbyhq.com",
	"avature.net",
	"bamboohr.com",
	"beapplied.com",
	"brassring.com",
	"breezy.hr",
	"brighthr.com",
	"bullhorn.com",
	"candidatemanager.net",
	"changeworknow.co.uk",
	"ciphr.com",
	"civica.com",
	"cloudonlinerecruitment.co.uk",
	"cohesionrecruitment.com",
	"cornerstoneondemand.com",
	"cvminder.co.uk",
	"cvmail.net",
	"darwinbox.com",
	"dayforcehcm.com",
	"eightfold.ai",
	"employmenthero.com",
	"havaspeople.com",
	"eploy.com",
	"eteach.com",
	"factorialhr.com",
	"firefishsoftware.com",
	"fourth.com",
	"gohire.io",
	"greenhouse.com",
	"greenhouse.io",
	"groupgti.com",
	"harbourats.com",
	"harri.com",
	"healthboxhr.com",
	"hibob.com",
	"hirebridge.com",
	"hirehive.com",
	"hireroad.com",
	"hireserve.com",
	"icims.com",
	"inploi.com",
	"webitrent.com",
	"jazzhr.com",
	"jobtrain.co.uk",
	"jobadder.com",
	"jobvite.com",
	"kallidus.com",
	"lever.co",
	"logicmelon.com",
	"lumesse-engage.com",
	"manatal.com",
	"mynewterm.com",
	"workday.com",
	"myworkdayjobs.com",
	"networxrecruitment.com",
	"iris.co.uk",
	"occupop.com",
	"cezannehr.com",
	"oleeo.com",
	"oraclecloud.com",
	"oracleoutsourcing.com",
	"pageuppeople.com",
	"peoplehr.com",
	"personio.com",
	"personio.de",
	"pinpointhq.com",
	"reach-ats.com",
	"recruitgenie.co.uk",
	"recruitee.com",
	"recruiterbox.com",
	"recruiterflow.com",
	"recruitive.com",
	"seemehired.com",
	"occy.com",
	"smartrecruiters.com",
	"staffsavvy.com",
	"successfactors.eu",
	"successfactors.com",
	"cegid.com",
	"talos360.co.uk",
	"teamtailor.com",
	"tes.com",
	"tribepad.com",
	"trac.jobs",
	"ultipro.com",
	"vacancyfiller.co.uk",
	"webrecruit.co",
	"workable.com",
	"adp.com",
	"zoho.com",
	"applytojob.com",
	"recruitingbypaycor.com",
	"paylocity.com",
	"paycomonline.net",
	"applicantpro.com",
	"hrmdirect.com",
	"clearcompany.com",
	"talentreef.com",
}

// Detection is the outcome of classifying a single job URL against the
// company it was scraped from.
type Detection struct {
	IsKnownATS            bool   `json:"is_known_ats"`
	IsATS                 bool   `json:"is_ats"`
	IsExternalApplication bool   `json:"is_external_application"`
	Provider              string `json:"ats_provider,omitempty"`
	Reason                string `json:"detection_reason"`
}

// Detector classifies job application URLs. It is stateless and safe
// for concurrent use.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// hostOf pulls the lowercased hostname out of a URL, tolerating bare
// domains with no scheme.
func hostOf(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.ToLower(u.Hostname())
}

// baseDomain reduces a hostname to its last two labels, e.g.
// jobs.example.co -> example.co.
func baseDomain(host string) string {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// matchProvider reports the known ATS domain the host belongs to, if any.
func matchProvider(host string) (string, bool) {
	full := strings.TrimPrefix(strings.ToLower(host), "www.")
	base := baseDomain(full)
	for _, provider := range knownProviders {
		if base == provider || full == provider || strings.HasSuffix(full, "."+provider) {
			return provider, true
		}
	}
	return "", false
}

// Detect classifies jobURL relative to companyDomain. It never fails;
// unparseable input degrades to an internal-application verdict.
func (d *Detector) Detect(jobURL, companyDomain string) Detection {
	jobHost := hostOf(jobURL)
	jobBase := baseDomain(jobHost)
	companyBase := baseDomain(hostOf(companyDomain))

	provider, known := matchProvider(jobHost)
	external := jobBase != "" && companyBase != "" && jobBase != companyBase

	det := Detection{
		IsKnownATS:            known,
		IsATS:                 known || external,
		IsExternalApplication: external,
	}
	switch {
	case known:
		det.Provider = provider
		det.Reason = fmt.Sprintf("Known ATS provider: %s", provider)
	case external:
		det.Provider = jobHost
		det.Reason = fmt.Sprintf("External domain (%s) differs from company (%s)", jobBase, companyBase)
	default:
		det.Reason = "Internal application on company domain"
	}
	return det
}
